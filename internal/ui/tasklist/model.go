package tasklist

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/taskquery"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/ui"
)

// TasksLoadedMsg is sent when the task list has been fetched. Cached is
// set when the backend failed and the local copy was used instead.
type TasksLoadedMsg struct {
	Tasks  []model.Task
	Cached bool
	Err    error
}

// SelectedTaskMsg is sent when a user selects a task to view details.
type SelectedTaskMsg struct {
	Task model.Task
}

// Source fetches the live task list.
type Source interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
}

// Cache is the offline copy consulted when Source fails.
type Cache interface {
	GetTasks(ctx context.Context, userID int64) ([]model.Task, error)
}

// Model is the main task list view component.
type Model struct {
	list        list.Model
	source      Source
	cache       Cache
	userID      func() int64
	keys        *keys.KeyMap
	tasks       []model.Task
	query       string
	sort        taskquery.SortState
	cached      bool
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new task list model. cache may be nil.
func New(src Source, cache Cache, userID func() int64, k *keys.KeyMap, currency string, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{currency: currency}, width, height-2)
	l.Title = "Available tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search title or description..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		source:      src,
		cache:       cache,
		userID:      userID,
		keys:        k,
		sort:        taskquery.DefaultSort(),
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial set of tasks.
func (m Model) Init() tea.Cmd {
	return m.LoadTasks()
}

// Capturing reports whether the view is consuming raw key input.
func (m Model) Capturing() bool {
	return m.searchMode
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		if msg.Err != nil && !msg.Cached {
			return m, ui.ErrorToast(msg.Err)
		}
		m.cached = msg.Cached
		cmd := m.SetTasks(msg.Tasks)
		if msg.Err != nil {
			return m, tea.Batch(cmd, ui.ErrorToast(msg.Err))
		}
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// SetTasks replaces the raw task list and re-applies search and sort.
func (m *Model) SetTasks(tasks []model.Task) tea.Cmd {
	m.tasks = tasks
	return m.refresh()
}

// SetQuery sets the search text, as from the command palette.
func (m *Model) SetQuery(q string) tea.Cmd {
	m.query = q
	m.searchInput.SetValue(q)
	return m.refresh()
}

// ToggleSort applies taskquery toggle semantics to field.
func (m *Model) ToggleSort(field taskquery.Field) tea.Cmd {
	m.sort = m.sort.Toggle(field)
	return m.refresh()
}

// Sort returns the active sort state.
func (m Model) Sort() taskquery.SortState { return m.sort }

// Visible returns the tasks currently shown, after search and sort.
func (m Model) Visible() []model.Task {
	items := m.list.Items()
	out := make([]model.Task, 0, len(items))
	for _, it := range items {
		if ti, ok := it.(TaskItem); ok {
			out = append(out, ti.Task)
		}
	}
	return out
}

func (m *Model) refresh() tea.Cmd {
	visible := taskquery.Apply(m.tasks, m.query, m.sort)
	items := make([]list.Item, len(visible))
	for i, t := range visible {
		items[i] = TaskItem{Task: t}
	}
	m.list.Title = m.title()
	return m.list.SetItems(items)
}

func (m Model) title() string {
	title := fmt.Sprintf("Available tasks · %s %s", m.sort.Field, m.sort.Order)
	if m.cached {
		title += " · offline"
	}
	return title
}

// handleSearchKeys processes key input while in search mode. The list
// narrows as the user types.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		m.query = ""
		cmd := m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() != m.query {
		m.query = m.searchInput.Value()
		refresh := m.refresh()
		return m, tea.Batch(cmd, refresh)
	}
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(TaskItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedTaskMsg{Task: item.Task}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.query)
		cmd := m.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.SortReward):
		cmd := m.ToggleSort(taskquery.FieldReward)
		return m, cmd
	case key.Matches(msg, m.keys.SortCreated):
		cmd := m.ToggleSort(taskquery.FieldCreatedAt)
		return m, cmd
	case key.Matches(msg, m.keys.SortDifficulty):
		cmd := m.ToggleSort(taskquery.FieldDifficulty)
		return m, cmd
	case key.Matches(msg, m.keys.SortApproval):
		cmd := m.ToggleSort(taskquery.FieldApprovalType)
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		return m, m.LoadTasks()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" {
		return style.Render(fmt.Sprintf("No tasks match %q.\nPress / to change the search.", m.query))
	}
	return style.Render("No tasks available right now.\n\nPress r to refresh.")
}

// LoadTasks returns a tea.Cmd that fetches tasks, falling back to the
// offline cache when the backend is unreachable.
func (m Model) LoadTasks() tea.Cmd {
	src, cache, userID := m.source, m.cache, m.userID
	return func() tea.Msg {
		ctx := context.Background()
		tasks, err := src.ListTasks(ctx)
		if err == nil {
			return TasksLoadedMsg{Tasks: tasks}
		}
		if cache == nil || userID == nil {
			return TasksLoadedMsg{Err: err}
		}
		cached, cacheErr := cache.GetTasks(ctx, userID())
		if cacheErr != nil || len(cached) == 0 {
			return TasksLoadedMsg{Err: err}
		}
		return TasksLoadedMsg{Tasks: cached, Cached: true, Err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
