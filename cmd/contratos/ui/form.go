package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Xlonenzo/contratos/internal/annotation"
	"github.com/Xlonenzo/contratos/internal/document"
)

// Form fields, in tab order.
const (
	fieldTitle = iota
	fieldDescription
	fieldPriority
	fieldType
)

var priorities = []document.IssuePriority{
	document.PriorityLow,
	document.PriorityMedium,
	document.PriorityHigh,
	document.PriorityCritical,
}

var issueTypes = []document.IssueType{
	document.IssueTask,
	document.IssueBug,
	document.IssueImprovement,
	document.IssueQuestion,
}

// FormModel is the annotation draft card rendered next to the selection.
// It owns the input widgets only; the draft values of record live in the
// annotation workflow, and every edit is written through immediately.
type FormModel struct {
	title  textinput.Model
	desc   textarea.Model
	focus  int
	styles Styles
	width  int
}

// NewFormModel builds the form widgets.
func NewFormModel(styles Styles) FormModel {
	ti := textinput.New()
	ti.Placeholder = "Título"
	ti.CharLimit = 200
	ti.Width = 44

	ta := textarea.New()
	ta.Placeholder = "Descrição"
	ta.SetWidth(44)
	ta.SetHeight(3)
	ta.CharLimit = 2000

	return FormModel{
		title:  ti,
		desc:   ta,
		styles: styles,
		width:  50,
	}
}

// Load resets the widgets from a freshly opened draft.
func (m *FormModel) Load(d annotation.Draft) {
	m.title.SetValue(d.Title)
	m.desc.SetValue(d.Description)
	m.focus = fieldTitle
	m.title.Focus()
	m.desc.Blur()
}

// Title returns the current title text.
func (m FormModel) Title() string { return m.title.Value() }

// Description returns the current description text.
func (m FormModel) Description() string { return m.desc.Value() }

// Update routes input to the focused widget. Tab order and the
// priority/type selectors are handled here; submit and cancel are the
// page's concern.
func (m FormModel) Update(msg tea.Msg, d *annotation.Draft) (FormModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab":
			m.setFocus((m.focus + 1) % m.fieldCount(d))
			return m, nil
		case "shift+tab":
			m.setFocus((m.focus - 1 + m.fieldCount(d)) % m.fieldCount(d))
			return m, nil
		case "left", "right":
			if m.focus == fieldPriority && d.Kind == annotation.KindIssue {
				d.Priority = cycle(priorities, d.Priority, key.String() == "right")
				return m, nil
			}
			if m.focus == fieldType && d.Kind == annotation.KindIssue {
				d.IssueType = cycle(issueTypes, d.IssueType, key.String() == "right")
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldTitle:
		m.title, cmd = m.title.Update(msg)
	case fieldDescription:
		m.desc, cmd = m.desc.Update(msg)
	}
	return m, cmd
}

// fieldCount hides the issue-only selectors for bookmark drafts.
func (m FormModel) fieldCount(d *annotation.Draft) int {
	if d != nil && d.Kind == annotation.KindIssue {
		return 4
	}
	return 2
}

func (m *FormModel) setFocus(f int) {
	m.focus = f
	if f == fieldTitle {
		m.title.Focus()
	} else {
		m.title.Blur()
	}
	if f == fieldDescription {
		m.desc.Focus()
	} else {
		m.desc.Blur()
	}
}

func cycle[T comparable](options []T, current T, forward bool) T {
	for i, v := range options {
		if v == current {
			if forward {
				return options[(i+1)%len(options)]
			}
			return options[(i-1+len(options))%len(options)]
		}
	}
	return options[0]
}

// View renders the draft card. View mode shows the persisted annotation
// read-only; create mode shows the editable form with any inline error.
func (m FormModel) View(d annotation.Draft, state annotation.State) string {
	s := m.styles
	var sb strings.Builder

	header := "Nova anotação"
	if d.Kind == annotation.KindIssue {
		header = "Novo apontamento"
	}
	if d.Mode == annotation.ModeView {
		header = fmt.Sprintf("Anotação #%d", d.ExistingID)
	}
	sb.WriteString(s.Title.Render(header))
	sb.WriteString("\n")

	if d.SelectionText != "" {
		quoted := d.SelectionText
		if n := []rune(quoted); len(n) > 60 {
			quoted = string(n[:57]) + "..."
		}
		sb.WriteString(s.Subtitle.Render("“"+quoted+"”") + "\n\n")
	}

	if d.Mode == annotation.ModeView {
		sb.WriteString(s.FormLabel.Render("Título: ") + s.Body.Render(d.Title) + "\n")
		if d.Description != "" {
			sb.WriteString(s.FormLabel.Render("Descrição: ") + s.Body.Render(d.Description) + "\n")
		}
		if d.Kind == annotation.KindIssue {
			sb.WriteString(s.FormLabel.Render("Prioridade: ") + s.PriorityStyle(d.Priority).Render(string(d.Priority)) + "\n")
			sb.WriteString(s.FormLabel.Render("Tipo: ") + s.Body.Render(string(d.IssueType)) + "\n")
		}
		sb.WriteString("\n" + s.Muted.Render("esc fechar"))
		return s.FormBox.Render(sb.String())
	}

	sb.WriteString(m.label("Título", fieldTitle) + "\n" + m.title.View() + "\n\n")
	sb.WriteString(m.label("Descrição", fieldDescription) + "\n" + m.desc.View() + "\n")

	if d.Kind == annotation.KindIssue {
		sb.WriteString("\n" + m.label("Prioridade", fieldPriority) + " " +
			s.PriorityStyle(d.Priority).Render("◂ "+string(d.Priority)+" ▸") + "\n")
		sb.WriteString(m.label("Tipo", fieldType) + " " +
			s.Body.Render("◂ "+string(d.IssueType)+" ▸") + "\n")
	}

	switch {
	case state == annotation.StateSubmitting:
		sb.WriteString("\n" + s.Info.Render("Enviando..."))
	case d.Err != nil:
		sb.WriteString("\n" + s.Error.Render(errorText(d.Err)))
	default:
		sb.WriteString("\n" + s.Muted.Render("ctrl+s enviar · esc cancelar · tab campo"))
	}

	return s.FormBox.Render(sb.String())
}

func (m FormModel) label(text string, field int) string {
	if m.focus == field {
		return m.styles.FormActive.Render("▸ " + text)
	}
	return m.styles.FormLabel.Render("  " + text)
}

func errorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, annotation.ErrMissingTitle):
		return "Informe um título antes de enviar."
	case errors.Is(err, annotation.ErrPersistence):
		return "Falha ao salvar. Tente novamente."
	default:
		return err.Error()
	}
}
