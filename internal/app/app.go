package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/keys"
	appsync "github.com/nhle/taskflow/internal/sync"
	"github.com/nhle/taskflow/internal/ui"
	adminview "github.com/nhle/taskflow/internal/ui/admin"
	"github.com/nhle/taskflow/internal/ui/advertiser"
	"github.com/nhle/taskflow/internal/ui/command"
	helpview "github.com/nhle/taskflow/internal/ui/help"
	"github.com/nhle/taskflow/internal/ui/history"
	"github.com/nhle/taskflow/internal/ui/login"
	"github.com/nhle/taskflow/internal/ui/notifications"
	"github.com/nhle/taskflow/internal/ui/profile"
	"github.com/nhle/taskflow/internal/ui/taskdetail"
	"github.com/nhle/taskflow/internal/ui/tasklist"
	walletview "github.com/nhle/taskflow/internal/ui/wallet"
)

// toastTTL is how long a toast stays on screen.
const toastTTL = 4 * time.Second

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewList
	ViewDetail
	ViewNotifications
	ViewWallet
	ViewHistory
	ViewAdmin
	ViewAdvertiser
	ViewProfile
	ViewHelp
	ViewCommand
)

type toastExpiredMsg struct{ seq int }

// Model is the root Bubble Tea model that manages view routing, layout
// and the signed-in session.
type Model struct {
	deps         Deps
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	login        login.Model
	taskList     tasklist.Model
	detail       taskdetail.Model
	notifView    notifications.Model
	walletView   walletview.Model
	historyView  history.Model
	adminView    adminview.Model
	advertiser   advertiser.Model
	profileView  profile.Model
	helpView     helpview.Model
	commandView  command.Model
	poller       *appsync.Poller
	ready        bool
	unread       int
	toast        ui.Toast
	toastSeq     int
}

// New creates the root model. The session decides whether the login
// screen or the home view is shown first.
func New(deps Deps) Model {
	deps = deps.withDefaults()
	k := keys.DefaultKeyMap()
	c := deps.Client
	currency := deps.Config.Display.CurrencySymbol
	userID := func() int64 { return deps.Session.User().ID }

	m := Model{
		deps:        deps,
		keys:        k,
		layout:      ui.NewLayout(80, 24),
		login:       login.New(c, 80, 24),
		taskList:    tasklist.New(c, deps.Store, userID, k, currency, 80, 24),
		notifView:   notifications.New(deps.Center, k, 80, 24),
		walletView:  walletview.New(c, k, currency, 80, 24),
		historyView: history.New(c, k, currency, 80, 24),
		adminView:   adminview.New(c, k, currency, 80, 24),
		advertiser:  advertiser.New(c, k, currency, 80, 24),
		profileView: profile.New(c, deps.Uploader, k, currency, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		detail: taskdetail.New(taskdetail.Deps{
			Availability: c,
			Uploader:     deps.Uploader,
			Submitter:    c,
			Tracker:      deps.Tracker,
			UserID:       userID,
			Currency:     currency,
		}, k, 80, 24),
	}
	if deps.Session.SignedIn() {
		m.currentView = m.homeView()
		m.previousView = m.currentView
		m.poller = m.newPoller()
	}
	return m
}

// Init shows the login form or resumes the stored session.
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewLogin {
		return m.login.Init()
	}
	return m.beginSession()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.login.SetSize(msg.Width, msg.Height)
		m.taskList.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.notifView.SetSize(w, h)
		m.walletView.SetSize(w, h)
		m.historyView.SetSize(w, h)
		m.adminView.SetSize(w, h)
		m.advertiser.SetSize(w, h)
		m.profileView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case login.LoggedInMsg:
		if err := m.deps.Session.Begin(msg.Result.Token, msg.Result.User); err != nil {
			m.deps.Logger.Warn("persisting session", slog.Any("error", err))
		}
		m.currentView = m.homeView()
		m.previousView = m.currentView
		welcome := m.showToast(ui.Toast{Text: "Welcome, " + msg.Result.User.Name})
		begin := m.beginSession()
		return m, tea.Batch(welcome, begin)

	case loggedOutMsg:
		cmd := m.endSession(ui.Toast{Text: "Signed out"})
		return m, cmd

	case profileMsg:
		if msg.err == nil {
			m.deps.Session.SetProfile(msg.profile)
		}
		return m, nil

	case profile.UpdatedMsg:
		m.deps.Session.SetProfile(msg.Profile)
		return m, nil

	case appsync.NotificationsMsg:
		if m.poller == nil {
			return m, nil
		}
		m.unread = msg.Unread
		m.notifView.SetNotifications(msg.Notifications)
		cmds := []tea.Cmd{m.nextPollResult()}
		if msg.NewCount > 0 {
			cmds = append(cmds, m.showToast(ui.Toast{Text: fmt.Sprintf("%d new notification(s)", msg.NewCount)}))
		}
		return m, tea.Batch(cmds...)

	case appsync.TasksMsg:
		if m.poller == nil {
			return m, nil
		}
		cmd := m.taskList.SetTasks(msg.Tasks)
		return m, tea.Batch(cmd, m.nextPollResult())

	case appsync.SyncErrorMsg:
		return m, m.nextPollResult()

	case appsync.AuthErrorMsg:
		cmd := m.endSession(ui.Toast{Text: msg.Message, IsError: true})
		return m, cmd

	case tasklist.TasksLoadedMsg:
		var cmd tea.Cmd
		m.taskList, cmd = m.taskList.Update(msg)
		return m, cmd

	case tasklist.SelectedTaskMsg:
		m.detail.Open(msg.Task)
		m.currentView = ViewDetail
		return m, nil

	case taskdetail.TaskSubmittedMsg:
		if m.poller != nil {
			m.poller.Refresh(appsync.FeedNotifications)
			m.poller.Refresh(appsync.FeedTasks)
		}
		toast := m.showToast(ui.Toast{Text: msg.Message})
		return m, tea.Batch(toast, m.fetchProfile())

	case notifications.ChangedMsg:
		m.unread = msg.Unread
		return m, nil

	case ui.ToastMsg:
		// A 401 anywhere clears the session; fall back to the login form.
		if m.currentView != ViewLogin && !m.deps.Session.SignedIn() {
			cmd := m.endSession(ui.Toast(msg))
			return m, cmd
		}
		cmd := m.showToast(ui.Toast(msg))
		return m, cmd

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ui.Toast{}
		}
		return m, nil

	case ui.BackMsg:
		m.currentView = m.homeView()
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(string(msg))
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.stopPoller()
			return m, tea.Quit
		}
		if m.capturing() {
			break
		}
		if handled, next, cmd := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes navigation keys that work from any view that
// is not capturing text input.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, Model, tea.Cmd) {
	switch {
	case msg.String() == "esc" && (m.currentView == ViewHelp || m.currentView == ViewCommand):
		m.currentView = m.previousView
		return true, m, nil

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.helpView.SetAdmin(m.deps.Session.AdminMode())
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return true, m, cmd

	case key.Matches(msg, m.keys.Quit):
		if m.currentView == m.homeView() {
			m.stopPoller()
			return true, m, tea.Quit
		}
		return false, m, nil

	case key.Matches(msg, m.keys.Notifications):
		cmd := m.switchTo(ViewNotifications)
		return true, m, cmd

	case key.Matches(msg, m.keys.Wallet):
		cmd := m.switchTo(ViewWallet)
		return true, m, cmd

	case key.Matches(msg, m.keys.History):
		cmd := m.switchTo(ViewHistory)
		return true, m, cmd

	case key.Matches(msg, m.keys.Advertiser):
		cmd := m.switchTo(ViewAdvertiser)
		return true, m, cmd

	case key.Matches(msg, m.keys.Profile):
		cmd := m.switchTo(ViewProfile)
		return true, m, cmd

	case key.Matches(msg, m.keys.AdminMode):
		cmd := m.toggleAdminMode()
		return true, m, cmd
	}
	return false, m, nil
}

// switchTo activates a view and starts its load.
func (m *Model) switchTo(view ViewState) tea.Cmd {
	if view != ViewHelp && view != ViewCommand {
		m.previousView = m.currentView
	}
	m.currentView = view

	switch view {
	case ViewList:
		return m.taskList.LoadTasks()
	case ViewNotifications:
		return m.notifView.Open()
	case ViewWallet:
		return m.walletView.Load()
	case ViewHistory:
		return m.historyView.Load()
	case ViewAdmin:
		return m.adminView.Load()
	case ViewAdvertiser:
		return m.advertiser.Load()
	case ViewProfile:
		return m.profileView.Load()
	}
	return nil
}

func (m *Model) toggleAdminMode() tea.Cmd {
	on, err := m.deps.Session.ToggleAdminMode()
	if err != nil {
		return m.showToast(ui.Toast{Text: "Admin mode requires an admin account", IsError: true})
	}
	if on {
		return tea.Batch(m.switchTo(ViewAdmin), m.showToast(ui.Toast{Text: "Admin mode"}))
	}
	return tea.Batch(m.switchTo(ViewList), m.showToast(ui.Toast{Text: "Worker mode"}))
}

// homeView is the admin console in admin mode and the task list otherwise.
func (m Model) homeView() ViewState {
	if !m.deps.Session.SignedIn() {
		return ViewLogin
	}
	if m.deps.Session.AdminMode() {
		return ViewAdmin
	}
	return ViewList
}

func (m Model) capturing() bool {
	switch m.currentView {
	case ViewLogin:
		return m.login.Capturing()
	case ViewCommand:
		return true
	case ViewList:
		return m.taskList.Capturing()
	case ViewDetail:
		return m.detail.Capturing()
	case ViewWallet:
		return m.walletView.Capturing()
	case ViewHistory:
		return m.historyView.Capturing()
	case ViewAdvertiser:
		return m.advertiser.Capturing()
	case ViewProfile:
		return m.profileView.Capturing()
	}
	return false
}

func (m *Model) showToast(t ui.Toast) tea.Cmd {
	m.toast = t
	m.toastSeq++
	seq := m.toastSeq
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.login, cmd = m.login.Update(msg)
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
	case ViewWallet:
		m.walletView, cmd = m.walletView.Update(msg)
	case ViewHistory:
		m.historyView, cmd = m.historyView.Update(msg)
	case ViewAdmin:
		m.adminView, cmd = m.adminView.Update(msg)
	case ViewAdvertiser:
		m.advertiser, cmd = m.advertiser.Update(msg)
	case ViewProfile:
		m.profileView, cmd = m.profileView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.currentView == ViewLogin {
		return m.login.View()
	}

	header := m.layout.RenderHeader("TaskFlow", m.modeLabel(), m.unread, m.syncStatus())
	toast := m.layout.RenderToast(m.toast)
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, m.renderContent(), toast, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewNotifications:
		return m.notifView.View()
	case ViewWallet:
		return m.walletView.View()
	case ViewHistory:
		return m.historyView.View()
	case ViewAdmin:
		return m.adminView.View()
	case ViewAdvertiser:
		return m.advertiser.View()
	case ViewProfile:
		return m.profileView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

func (m Model) modeLabel() string {
	user := m.deps.Session.User()
	if m.deps.Session.AdminMode() {
		return user.Name + " · admin"
	}
	return user.Name
}

// syncStatus returns a short string describing the combined poll state.
func (m Model) syncStatus() string {
	if m.poller == nil {
		return "offline"
	}

	running, failed := 0, 0
	var last time.Time
	for _, s := range m.poller.GetStatuses() {
		switch s.State {
		case appsync.SyncRunning:
			running++
		case appsync.SyncError:
			failed++
		}
		if s.LastSync.After(last) {
			last = s.LastSync
		}
	}

	switch {
	case running > 0:
		return "syncing"
	case failed > 0:
		return "unreachable"
	case last.IsZero():
		return "idle"
	default:
		return "synced " + last.Local().Format("15:04")
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "s start | j/k steps | enter proofs | ctrl+s submit | esc back"
	case ViewNotifications:
		return "m read | M read all | o reload | esc close"
	case ViewWallet:
		return "W withdraw | r refresh | esc back"
	case ViewHistory:
		return "tab filter | d dispute | r refresh | esc back"
	case ViewAdmin:
		return "tab queue | a approve | x reject | A worker mode | q quit"
	case ViewAdvertiser:
		return "tab switch | N new | t top up | a/x review | esc back"
	case ViewProfile:
		return "e edit | P password | i verify ID | r refresh | esc back"
	default:
		s := m.taskList.Sort()
		return fmt.Sprintf("q quit | ? help | / search | 1-4 sort (%s %s) | n inbox | w wallet | h history | v advertiser | p profile", s.Field, s.Order)
	}
}
