// Package notifications renders the notification panel.
package notifications

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/notify"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/ui"
)

// LoadedMsg carries the result of opening the panel.
type LoadedMsg struct {
	Notifications []model.Notification
	Source        notify.Source
	Err           error
}

// ChangedMsg tells the parent the unread count may have changed.
type ChangedMsg struct {
	Unread int
}

type markedMsg struct {
	err error
}

// Model is the notification panel.
type Model struct {
	center  *notify.Center
	keys    *keys.KeyMap
	items   []model.Notification
	source  notify.Source
	cursor  int
	loading bool
	width   int
	height  int
}

// New creates the panel over center.
func New(center *notify.Center, k *keys.KeyMap, width, height int) Model {
	return Model{center: center, keys: k, width: width, height: height}
}

// Init returns nil; the panel loads when opened.
func (m Model) Init() tea.Cmd {
	return nil
}

// Open marks the panel as loading and fetches the list.
func (m *Model) Open() tea.Cmd {
	m.loading = true
	center := m.center
	return func() tea.Msg {
		list, err := center.Open(context.Background())
		return LoadedMsg{Notifications: list, Source: center.Source(), Err: err}
	}
}

// SetNotifications installs a list delivered by the background poller.
func (m *Model) SetNotifications(list []model.Notification) {
	m.items = m.keepRead(list)
	m.source = notify.SourceRemote
	m.clampCursor()
}

// Reset forgets the rows of the previous session.
func (m *Model) Reset() {
	m.items = nil
	m.source = notify.SourceNone
	m.cursor = 0
	m.loading = false
}

// keepRead carries read flags already shown onto list. A list fetched
// before a mark was applied must not bring the row back as unread.
func (m Model) keepRead(list []model.Notification) []model.Notification {
	read := make(map[int64]bool, len(m.items))
	for _, n := range m.items {
		if n.IsRead {
			read[n.ID] = true
		}
	}
	out := slices.Clone(list)
	for i := range out {
		if read[out[i].ID] {
			out[i].IsRead = true
		}
	}
	return out
}

// Items returns the rows currently shown.
func (m Model) Items() []model.Notification { return m.items }

// Update handles messages for the panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m, ui.ErrorToast(msg.Err)
		}
		m.items = m.keepRead(msg.Notifications)
		m.source = msg.Source
		m.clampCursor()
		return m, m.changed()

	case markedMsg:
		m.items = m.keepRead(m.center.Notifications())
		m.clampCursor()
		if msg.err != nil {
			return m, tea.Batch(m.changed(), ui.ErrorToast(msg.err))
		}
		return m, m.changed()

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.center.Close()
		return m, ui.Back

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.Refresh):
		cmd := m.Open()
		return m, cmd

	case key.Matches(msg, m.keys.MarkRead), key.Matches(msg, m.keys.Select):
		if len(m.items) == 0 || m.items[m.cursor].IsRead {
			return m, nil
		}
		id := m.items[m.cursor].ID
		m.items[m.cursor].IsRead = true
		center := m.center
		return m, tea.Batch(m.changed(), func() tea.Msg {
			return markedMsg{err: center.MarkRead(context.Background(), id)}
		})

	case key.Matches(msg, m.keys.MarkAllRead):
		if model.UnreadCount(m.items) == 0 {
			return m, nil
		}
		for i := range m.items {
			m.items[i].IsRead = true
		}
		center := m.center
		return m, tea.Batch(m.changed(), func() tea.Msg {
			return markedMsg{err: center.MarkAllRead(context.Background())}
		})
	}
	return m, nil
}

func (m Model) changed() tea.Cmd {
	unread := model.UnreadCount(m.items)
	return func() tea.Msg { return ChangedMsg{Unread: unread} }
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.items) {
		m.cursor = max(len(m.items)-1, 0)
	}
}

// View renders the panel.
func (m Model) View() string {
	title := theme.TitleStyle.Render(fmt.Sprintf("Notifications (%d unread)", model.UnreadCount(m.items)))
	if m.source == notify.SourceMemory || m.source == notify.SourceMirror {
		title += theme.HelpStyle.Render("  offline copy")
	}

	if m.loading && len(m.items) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, "", theme.HelpStyle.Render("Loading..."))
	}
	if len(m.items) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, "", theme.HelpStyle.Render("No notifications yet."))
	}

	rows := make([]string, 0, len(m.items)*2)
	for i, n := range m.items {
		rows = append(rows, m.renderRow(i, n))
	}

	visible := rows
	perPage := max(m.height-3, 1) / 2
	if len(visible) > perPage && perPage > 0 {
		start := max(m.cursor-perPage+1, 0)
		visible = visible[start:min(start+perPage, len(visible))]
	}

	hint := theme.HelpStyle.Render("m mark read · M mark all · o reload · esc close")
	return lipgloss.JoinVertical(lipgloss.Left, title, "", strings.Join(visible, "\n"), "", hint)
}

func (m Model) renderRow(i int, n model.Notification) string {
	marker := "●"
	if n.IsRead {
		marker = " "
	}
	head := fmt.Sprintf("%s %s  %s",
		theme.NotificationStyle(string(n.Type)).Render(marker),
		n.Title,
		theme.HelpStyle.Render(n.CreatedAt.Local().Format("Jan 02 15:04")),
	)
	body := "  " + n.Message

	style := theme.ListItemStyle
	if i == m.cursor {
		style = theme.SelectedItemStyle
	}
	return style.Width(max(m.width-2, 20)).Render(head + "\n" + body)
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
