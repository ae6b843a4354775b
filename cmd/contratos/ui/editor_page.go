package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/Xlonenzo/contratos/internal/annotation"
	"github.com/Xlonenzo/contratos/internal/document"
	"github.com/Xlonenzo/contratos/internal/editor"
	"github.com/Xlonenzo/contratos/internal/render"
	"github.com/Xlonenzo/contratos/internal/selection"
)

// EditorPageModel is the document surface: it renders the contract with
// its formatting and annotation marks, moves the caret and selection, and
// drives the annotation workflow for the current selection.
type EditorPageModel struct {
	width  int
	height int

	viewport viewport.Model
	styles   Styles
	logger   *zap.Logger

	ed       *editor.Editor
	tracker  *selection.Tracker
	workflow *annotation.Workflow
	svc      annotation.Service

	cursor document.Point
	anchor *document.Point

	form     FormModel
	status   string
	statusOK bool
}

// NewEditorPageModel wires the page to an editor instance and the
// annotation backend. The tracker's rect resolver maps logical ranges to
// terminal rows so the draft card can sit next to the selection.
func NewEditorPageModel(ed *editor.Editor, contractID int64, svc annotation.Service, styles Styles, logger *zap.Logger) EditorPageModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := EditorPageModel{
		viewport: viewport.New(80, 20),
		styles:   styles,
		logger:   logger,
		ed:       ed,
		svc:      svc,
		form:     NewFormModel(styles),
		width:    80,
		height:   24,
	}
	m.tracker = selection.NewTracker(
		selection.WithResolver(selection.ResolverFunc(m.resolveRect)),
		selection.WithLogger(logger),
	)
	m.workflow = annotation.NewWorkflow(contractID, ed, annotation.WithLogger(logger))
	m.cursor = ed.Snapshot().Start()
	return m
}

// resolveRect maps a logical range onto terminal rows: one row per leaf
// block, column offsets in runes. Fails when the range does not resolve,
// which degrades the selection snapshot to logical-only.
func (m EditorPageModel) resolveRect(doc *document.Document, r document.Range) (selection.Rect, bool) {
	start, end := r.Ordered()
	paths := doc.LeafPaths()
	row := leafIndex(paths, start.Path)
	if row < 0 {
		return selection.Rect{}, false
	}
	endRow := leafIndex(paths, end.Path)
	if endRow < 0 {
		return selection.Rect{}, false
	}
	width := end.Offset - start.Offset
	if endRow != row {
		width = leafLen(doc, start.Path) - start.Offset
	}
	return selection.Rect{
		X:      start.Offset,
		Y:      row,
		Width:  width,
		Height: endRow - row + 1,
	}, true
}

// Init implements tea.Model.
func (m EditorPageModel) Init() tea.Cmd {
	return nil
}

// SetSize resizes the page.
func (m *EditorPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = h - 1 // status line
}

// Update handles one message. While a draft is open all keys route to the
// form except submit and cancel.
func (m EditorPageModel) Update(msg tea.Msg) (EditorPageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case annotationResultMsg:
		return m.handleResult(msg)
	case statusMsg:
		m.status = string(msg)
		m.statusOK = false
		return m, clearStatusAfter(4 * time.Second)
	case clearStatusMsg:
		m.status = ""
		return m, nil
	case tea.KeyMsg:
		if m.workflow.State() != annotation.StateIdle {
			return m.updateForm(msg)
		}
		return m.updateSurface(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m EditorPageModel) updateForm(msg tea.KeyMsg) (EditorPageModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.workflow.Cancel()
		return m, nil
	case "ctrl+s", "enter":
		if msg.String() == "enter" && m.form.focus == fieldDescription {
			break // newline inside the description
		}
		return m.submitDraft()
	}

	draft, ok := m.workflow.Draft()
	if !ok || m.workflow.State() == annotation.StateSubmitting {
		return m, nil
	}
	if draft.Mode == annotation.ModeView {
		return m, nil
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg, &draft)
	_ = m.workflow.SetTitle(m.form.Title())
	_ = m.workflow.SetDescription(m.form.Description())
	_ = m.workflow.SetPriority(draft.Priority)
	_ = m.workflow.SetIssueType(draft.IssueType)
	return m, cmd
}

func (m EditorPageModel) submitDraft() (EditorPageModel, tea.Cmd) {
	req, err := m.workflow.Submit()
	if err != nil {
		// Validation errors render inline on the draft card.
		return m, nil
	}
	return m, submitAnnotation(m.svc, req)
}

func (m EditorPageModel) handleResult(msg annotationResultMsg) (EditorPageModel, tea.Cmd) {
	applied, err := m.workflow.Resolve(msg.draftID, msg.rec, msg.err)
	if err != nil {
		m.status = "Anotação salva no servidor, mas o trecho não pôde ser marcado."
		m.statusOK = false
		return m, clearStatusAfter(6 * time.Second)
	}
	if applied {
		m.anchor = nil
		m.status = fmt.Sprintf("Anotação #%d salva.", msg.rec.ID)
		m.statusOK = true
		return m, clearStatusAfter(4 * time.Second)
	}
	return m, nil
}

func (m EditorPageModel) updateSurface(msg tea.KeyMsg) (EditorPageModel, tea.Cmd) {
	doc := m.ed.Snapshot()

	// Bracketed paste arrives as one rune batch flagged Paste.
	if msg.Paste {
		return m.pasteText(string(msg.Runes))
	}

	switch msg.String() {
	case "left":
		m.cursor, m.anchor = moveLeft(doc, m.cursor), nil
	case "right":
		m.cursor, m.anchor = moveRight(doc, m.cursor), nil
	case "up":
		m.cursor, m.anchor = moveVertical(doc, m.cursor, -1), nil
	case "down":
		m.cursor, m.anchor = moveVertical(doc, m.cursor, 1), nil
	case "home":
		m.cursor, m.anchor = lineStart(m.cursor), nil
	case "end":
		m.cursor, m.anchor = lineEnd(doc, m.cursor), nil
	case "shift+left":
		m.extend(moveLeft(doc, m.cursor))
	case "shift+right":
		m.extend(moveRight(doc, m.cursor))
	case "shift+up":
		m.extend(moveVertical(doc, m.cursor, -1))
	case "shift+down":
		m.extend(moveVertical(doc, m.cursor, 1))
	case "shift+home":
		m.extend(lineStart(m.cursor))
	case "shift+end":
		m.extend(lineEnd(doc, m.cursor))
	case "ctrl+a":
		whole := m.ed.WholeRange()
		m.anchor = &whole.Anchor
		m.cursor = whole.Focus
	case "ctrl+b":
		return m.toggleMark(document.Bold())
	case "ctrl+t":
		// ctrl+i produces the same byte as tab in terminals, so italic
		// lives on ctrl+t instead.
		return m.toggleMark(document.Italic())
	case "ctrl+u":
		return m.toggleMark(document.Underline())
	case "ctrl+e":
		return m.toggleMark(document.AlignCenter())
	case "ctrl+l":
		return m.toggleMark(document.AlignLeft())
	case "ctrl+r":
		return m.toggleMark(document.AlignRight())
	case "ctrl+z":
		if m.ed.Undo() {
			m = m.clampCursor()
		}
	case "ctrl+y":
		if m.ed.Redo() {
			m = m.clampCursor()
		}
	case "ctrl+v":
		text, err := clipboard.ReadAll()
		if err != nil || text == "" {
			m.status = "Área de transferência vazia."
			m.statusOK = false
			return m, clearStatusAfter(3 * time.Second)
		}
		return m.pasteText(text)
	case "ctrl+n":
		return m.openDraft(annotation.KindIssue)
	case "ctrl+k":
		return m.openDraft(annotation.KindBookmark)
	case "ctrl+o":
		return m.openExisting(doc)
	case "pgup", "pgdown":
		// Scrolling is the viewport's business; the caret stays put.
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	m.syncTracker()
	return m, nil
}

// pasteText inserts pasted text as paragraph blocks after the caret's
// top-level block and moves the caret to the first inserted line.
func (m EditorPageModel) pasteText(text string) (EditorPageModel, tea.Cmd) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if strings.TrimRight(text, "\n") == "" {
		return m, nil
	}
	index := 0
	if len(m.cursor.Path) > 0 {
		index = m.cursor.Path[0] + 1
	}
	if err := m.ed.PasteText(index, text); err != nil {
		m.logger.Warn("paste rejected", zap.Error(err))
		return m, nil
	}
	m.cursor = document.Point{Path: document.Path{index}}
	m.anchor = nil
	m.syncTracker()
	return m, nil
}

func (m *EditorPageModel) extend(next document.Point) {
	if m.anchor == nil {
		anchor := document.Point{Path: m.cursor.Path.Clone(), Offset: m.cursor.Offset}
		m.anchor = &anchor
	}
	m.cursor = next
}

func (m EditorPageModel) selectionRange() document.Range {
	if m.anchor == nil {
		return document.Range{Anchor: m.cursor, Focus: m.cursor}
	}
	return document.Range{Anchor: *m.anchor, Focus: m.cursor}
}

func (m *EditorPageModel) syncTracker() {
	if _, err := m.tracker.Update(m.ed.Snapshot(), m.selectionRange()); err != nil {
		m.logger.Debug("selection update rejected", zap.Error(err))
	}
}

func (m EditorPageModel) toggleMark(mark document.Mark) (EditorPageModel, tea.Cmd) {
	r := m.selectionRange()
	if r.IsCollapsed() {
		m.status = "Selecione um trecho primeiro."
		m.statusOK = false
		return m, clearStatusAfter(3 * time.Second)
	}
	if err := m.ed.ApplyMark(r, mark); err != nil {
		m.logger.Warn("mark toggle failed", zap.Error(err))
	}
	return m, nil
}

func (m EditorPageModel) openDraft(kind annotation.Kind) (EditorPageModel, tea.Cmd) {
	m.syncTracker()
	if err := m.workflow.Open(kind, m.tracker.Current()); err != nil {
		m.status = "Selecione um trecho para anotar."
		m.statusOK = false
		return m, clearStatusAfter(3 * time.Second)
	}
	if draft, ok := m.workflow.Draft(); ok {
		m.form.Load(draft)
	}
	return m, nil
}

// openExisting opens the annotation under the caret read-only.
func (m EditorPageModel) openExisting(doc *document.Document) (EditorPageModel, tea.Cmd) {
	run, ok := runAt(doc, m.cursor)
	if !ok {
		return m, nil
	}
	mark, ok := render.AnnotationAt(run)
	if !ok {
		m.status = "Nenhuma anotação sob o cursor."
		m.statusOK = false
		return m, clearStatusAfter(3 * time.Second)
	}
	snap := m.tracker.Current()
	if err := m.workflow.OpenExisting(mark, snap.Rect); err != nil {
		m.logger.Debug("open existing rejected", zap.Error(err))
	}
	return m, nil
}

// View renders the document surface with the draft card overlaid under
// the selection row when a draft is open.
func (m EditorPageModel) View() string {
	doc := m.ed.Snapshot()
	surface := m.renderDocument(doc)
	m.viewport.SetContent(surface)

	parts := []string{m.viewport.View()}
	if draft, ok := m.workflow.Draft(); ok {
		parts = append(parts, m.form.View(draft, m.workflow.State()))
	}
	parts = append(parts, m.statusLine())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m EditorPageModel) statusLine() string {
	if m.status == "" {
		hint := "ctrl+b negrito · ctrl+t itálico · ctrl+u sublinhado · ctrl+v colar · ctrl+n apontamento · ctrl+k marcador · ctrl+z desfazer"
		return m.styles.Footer.Render(hint)
	}
	if m.statusOK {
		return m.styles.Footer.Render(m.styles.Success.Render(m.status))
	}
	return m.styles.Footer.Render(m.styles.Warning.Render(m.status))
}

// renderDocument paints the render tree row by row. Each leaf block is one
// row; decorations nest innermost-last so outer styles win ties, and the
// selection overlay inverts the covered span.
func (m EditorPageModel) renderDocument(doc *document.Document) string {
	nodes := render.Render(doc)
	selStart, selEnd := m.selectionRange().Ordered()

	var rows []string
	for i, node := range nodes {
		rows = append(rows, m.renderNode(node, document.Path{i}, selStart, selEnd)...)
	}
	return strings.Join(rows, "\n")
}

func (m EditorPageModel) renderNode(node render.Node, path document.Path, selStart, selEnd document.Point) []string {
	switch n := node.(type) {
	case render.Element:
		if len(n.Children) > 0 {
			if _, isLeaf := n.Children[0].(render.Leaf); isLeaf {
				return []string{m.renderRow(n, path, selStart, selEnd)}
			}
		}
		var rows []string
		for j, child := range n.Children {
			childPath := append(path.Clone(), j)
			for _, line := range m.renderNode(child, childPath, selStart, selEnd) {
				rows = append(rows, "  • "+line)
			}
		}
		return rows
	default:
		return nil
	}
}

// renderRow paints one leaf block: runs with their mark styles, the
// selection span inverted, and the caret cell when it sits on this row.
func (m EditorPageModel) renderRow(el render.Element, path document.Path, start, end document.Point) string {
	selStart, selEnd := selectionSpan(path, start, end)
	caretOffset := -1
	if m.anchor == nil && m.cursor.Path.Equal(path) {
		caretOffset = m.cursor.Offset
	}

	var sb strings.Builder
	offset := 0
	for _, child := range el.Children {
		leaf, ok := child.(render.Leaf)
		if !ok {
			continue
		}
		style := m.leafStyle(leaf)
		for _, r := range leaf.Text {
			cell := string(r)
			st := style
			if offset >= selStart && offset < selEnd {
				st = st.Reverse(true)
			}
			if offset == caretOffset {
				st = st.Reverse(true)
			}
			sb.WriteString(st.Render(cell))
			offset++
		}
	}
	if caretOffset == offset {
		sb.WriteString(m.styles.Caret.Render(" "))
	}

	line := sb.String()
	switch el.Align {
	case document.MarkAlignCenter:
		return lipgloss.PlaceHorizontal(m.contentWidth(), lipgloss.Center, line)
	case document.MarkAlignRight:
		return lipgloss.PlaceHorizontal(m.contentWidth(), lipgloss.Right, line)
	}
	return line
}

func (m EditorPageModel) contentWidth() int {
	if m.width > 4 {
		return m.width - 4
	}
	return 76
}

// leafStyle folds the leaf's decorations into one lipgloss style,
// outermost first.
func (m EditorPageModel) leafStyle(leaf render.Leaf) lipgloss.Style {
	style := m.styles.Body
	for i := len(leaf.Decorations) - 1; i >= 0; i-- {
		switch leaf.Decorations[i].Kind {
		case document.MarkBold:
			style = style.Bold(true)
		case document.MarkItalic:
			style = style.Italic(true)
		case document.MarkUnderline:
			style = style.Underline(true)
		case document.MarkIssue:
			style = style.Inherit(m.styles.Issue)
		case document.MarkBookmark:
			style = style.Inherit(m.styles.Bookmark)
		}
	}
	return style
}

// selectionSpan returns the local [from, to) rune span of the ordered
// selection on the given leaf row, or an empty span.
func selectionSpan(path document.Path, start, end document.Point) (int, int) {
	if start.Equal(end) {
		return 0, 0
	}
	startCmp := path.Compare(start.Path)
	endCmp := path.Compare(end.Path)
	if startCmp < 0 || endCmp > 0 {
		return 0, 0
	}
	from := 0
	if startCmp == 0 {
		from = start.Offset
	}
	to := int(^uint(0) >> 1)
	if endCmp == 0 {
		to = end.Offset
	}
	return from, to
}

// clampCursor pulls the caret back inside the document after undo/redo
// changed the block structure underneath it.
func (m EditorPageModel) clampCursor() EditorPageModel {
	doc := m.ed.Snapshot()
	paths := doc.LeafPaths()
	if leafIndex(paths, m.cursor.Path) < 0 {
		m.cursor = doc.Start()
		m.anchor = nil
		return m
	}
	if max := leafLen(doc, m.cursor.Path); m.cursor.Offset > max {
		m.cursor.Offset = max
	}
	return m
}

// Workflow exposes the annotation state machine for the app shell.
func (m EditorPageModel) Workflow() *annotation.Workflow { return m.workflow }

// Editor exposes the underlying editor for the app shell.
func (m EditorPageModel) Editor() *editor.Editor { return m.ed }
