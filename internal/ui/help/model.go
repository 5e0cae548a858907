package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	admin  bool
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// SetAdmin controls whether the admin console bindings are listed.
func (m *Model) SetAdmin(admin bool) {
	m.admin = admin
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	title := theme.TitleStyle.Render("TaskFlow shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	sections := []string{title, m.help.View(m.keys)}

	if m.admin {
		sections = append(sections,
			"",
			theme.TitleStyle.Render("Admin console"),
			m.help.FullHelpView([][]key.Binding{{m.keys.Tab, m.keys.Approve, m.keys.Reject, m.keys.AdminMode}}),
		)
	}

	sections = append(sections, "", theme.HelpStyle.Render("Commands: tasks, notifications, wallet, history, profile, admin, advertiser, sort <field>, search <text>, refresh, logout, quit"))

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
