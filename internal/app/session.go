package app

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/model"
	appsync "github.com/nhle/taskflow/internal/sync"
	"github.com/nhle/taskflow/internal/ui"
	"github.com/nhle/taskflow/internal/ui/login"
)

// loggedOutMsg is sent once the backend logout call has returned.
type loggedOutMsg struct{}

// profileMsg carries the refreshed profile of the signed-in user.
type profileMsg struct {
	profile *model.Profile
	err     error
}

func (m *Model) newPoller() *appsync.Poller {
	d := m.deps
	return appsync.New(appsync.Config{
		Backend:     d.Client,
		Center:      d.Center,
		Tasks:       d.Store,
		UserID:      func() int64 { return d.Session.User().ID },
		DeviceToken: d.DeviceToken,
		Interval:    time.Duration(d.Config.Display.PollIntervalSec) * time.Second,
		Logger:      d.Logger,
	})
}

// beginSession starts background refresh and the first loads for the
// signed-in user.
func (m *Model) beginSession() tea.Cmd {
	if m.poller == nil {
		m.poller = m.newPoller()
	}
	cmds := []tea.Cmd{m.poller.Start(), m.fetchProfile()}
	if m.currentView == ViewAdmin {
		cmds = append(cmds, m.adminView.Load())
	} else {
		cmds = append(cmds, m.taskList.LoadTasks())
	}
	return tea.Batch(cmds...)
}

// endSession stops background work, forgets cached user data and returns
// to the login form showing toast.
func (m *Model) endSession(toast ui.Toast) tea.Cmd {
	m.stopPoller()
	m.deps.Session.Invalidate()
	m.deps.Center.Reset()
	m.notifView.Reset()
	m.unread = 0
	m.currentView = ViewLogin
	m.login = login.New(m.deps.Client, m.layout.Width, m.layout.Height)
	return tea.Batch(m.login.Init(), m.showToast(toast))
}

// nextPollResult keeps listening to the poller. Results that arrive after
// the session ended are dropped.
func (m Model) nextPollResult() tea.Cmd {
	if m.poller == nil {
		return nil
	}
	return m.poller.WaitForNextResult()
}

func (m *Model) stopPoller() {
	if m.poller != nil {
		m.poller.Stop()
		m.poller = nil
	}
}

func (m Model) fetchProfile() tea.Cmd {
	c := m.deps.Client
	return func() tea.Msg {
		p, err := c.Profile(context.Background())
		return profileMsg{profile: p, err: err}
	}
}

func (m Model) logout() tea.Cmd {
	c, logger := m.deps.Client, m.deps.Logger
	return func() tea.Msg {
		if err := c.Logout(context.Background()); err != nil {
			logger.Warn("backend logout failed", slog.Any("error", err))
		}
		return loggedOutMsg{}
	}
}
