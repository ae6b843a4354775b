package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/Xlonenzo/contratos/internal/annotation"
	"github.com/Xlonenzo/contratos/internal/editor"
)

// SaveFunc persists the serialized document value. The app calls it on
// ctrl+s and on quit when the document changed since the last save.
type SaveFunc func(data []byte) error

// AppModel is the top-level program model: header, editor page, and the
// save-on-exit plumbing.
type AppModel struct {
	page   EditorPageModel
	styles Styles
	logger *zap.Logger

	contractName string
	save         SaveFunc
	dirty        bool

	width  int
	height int
}

// NewAppModel builds the program model around an editor instance.
func NewAppModel(ed *editor.Editor, contractID int64, contractName string, svc annotation.Service, theme Theme, save SaveFunc, logger *zap.Logger) AppModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	styles := NewStyles(theme)
	return AppModel{
		page:         NewEditorPageModel(ed, contractID, svc, styles, logger),
		styles:       styles,
		logger:       logger,
		contractName: contractName,
		save:         save,
	}
}

// Init implements tea.Model.
func (m AppModel) Init() tea.Cmd {
	return m.page.Init()
}

// Update implements tea.Model.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.page.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case tea.KeyMsg:
		formOpen := m.page.Workflow().State() != annotation.StateIdle
		switch msg.String() {
		case "ctrl+c", "ctrl+q":
			if m.dirty {
				m.saveNow()
			}
			return m, tea.Quit
		case "ctrl+s":
			if !formOpen {
				m.saveNow()
				return m, func() tea.Msg { return statusMsg("Documento salvo.") }
			}
		}
	}

	var cmd tea.Cmd
	m.page, cmd = m.page.Update(msg)
	if m.page.Editor().CanUndo() {
		m.dirty = true
	}
	return m, cmd
}

func (m *AppModel) saveNow() {
	if m.save == nil {
		return
	}
	data, err := m.page.Editor().Serialize()
	if err != nil {
		m.logger.Error("serialize for save failed", zap.Error(err))
		return
	}
	if err := m.save(data); err != nil {
		m.logger.Error("save failed", zap.Error(err))
		return
	}
	m.dirty = false
}

// View implements tea.Model.
func (m AppModel) View() string {
	header := m.styles.Header.Render(fmt.Sprintf(" contratos · %s ", m.contractName))
	return lipgloss.JoinVertical(lipgloss.Left, header, m.page.View())
}
