package app

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/cooldown"
	"github.com/nhle/taskflow/internal/credential"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/notify"
	"github.com/nhle/taskflow/internal/session"
	appsync "github.com/nhle/taskflow/internal/sync"
	"github.com/nhle/taskflow/internal/ui"
	"github.com/nhle/taskflow/internal/ui/command"
	"github.com/nhle/taskflow/internal/ui/login"
	"github.com/nhle/taskflow/tests/testutil"
)

// ─── Helpers ─────────────────────────────────────────────

func newDeps(t *testing.T) (Deps, *testutil.FakeBackend) {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	sess := session.New(credential.NewMemory(), nil)
	client := api.NewClient(backend.URL(), sess, api.WithMaxRetries(0))
	st := testutil.NewTestStore(t)
	return Deps{
		Client:   client,
		Uploader: api.NewUploader("http://127.0.0.1:0", func() string { return sess.User().Name }, nil),
		Session:  sess,
		Store:    st,
		Center:   notify.NewCenter(client, st, func() int64 { return sess.User().ID }, nil),
		Tracker:  cooldown.NewTracker(st),
	}, backend
}

// signedInModel builds a root model for a user with a stored session.
func signedInModel(t *testing.T) Model {
	t.Helper()
	deps, backend := newDeps(t)
	if err := deps.Session.Begin(backend.Token, backend.User); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	m := New(deps)
	t.Cleanup(m.stopPoller)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	if k == "esc" {
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	}
	return update(t, m, msg)
}

// ─── Session routing ─────────────────────────────────────

func TestStartsAtLoginWhenSignedOut(t *testing.T) {
	deps, _ := newDeps(t)
	m := New(deps)
	if m.currentView != ViewLogin {
		t.Errorf("view = %v, want login", m.currentView)
	}
	if m.poller != nil {
		t.Error("poller created without a session")
	}
}

func TestLoginMovesToTaskList(t *testing.T) {
	deps, backend := newDeps(t)
	m := New(deps)
	t.Cleanup(m.stopPoller)

	m, cmd := update(t, m, login.LoggedInMsg{Result: &model.AuthResult{Token: backend.Token, User: backend.User}})
	t.Cleanup(m.stopPoller)
	if m.currentView != ViewList {
		t.Errorf("view = %v, want list", m.currentView)
	}
	if !deps.Session.SignedIn() || cmd == nil {
		t.Error("session not started")
	}
	if m.toast.Text != "Welcome, Worker" {
		t.Errorf("toast = %q", m.toast.Text)
	}
}

func TestUnauthorizedToastReturnsToLogin(t *testing.T) {
	m := signedInModel(t)
	m.deps.Session.Invalidate()

	m, _ = update(t, m, ui.ToastMsg{Text: "Session expired. Please login again.", IsError: true})
	if m.currentView != ViewLogin {
		t.Errorf("view = %v, want login", m.currentView)
	}
	if m.poller != nil {
		t.Error("poller still running after session ended")
	}
}

func TestPollerAuthErrorEndsSession(t *testing.T) {
	m := signedInModel(t)

	m, _ = update(t, m, appsync.AuthErrorMsg{Message: "Invalid token"})
	if m.currentView != ViewLogin || m.deps.Session.SignedIn() {
		t.Errorf("view = %v signedIn = %v", m.currentView, m.deps.Session.SignedIn())
	}
	if !m.toast.IsError || m.toast.Text != "Invalid token" {
		t.Errorf("toast = %+v", m.toast)
	}

	// A result already in flight from the stopped poller is dropped.
	m, cmd := update(t, m, appsync.NotificationsMsg{Unread: 3})
	if m.unread != 0 || cmd != nil {
		t.Errorf("late poller result applied: unread=%d", m.unread)
	}
}

// ─── Navigation ──────────────────────────────────────────

func TestGlobalNavigation(t *testing.T) {
	tests := []struct {
		key  string
		want ViewState
	}{
		{"w", ViewWallet},
		{"h", ViewHistory},
		{"n", ViewNotifications},
		{"v", ViewAdvertiser},
		{"p", ViewProfile},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m := signedInModel(t)
			m, cmd := press(t, m, tt.key)
			if m.currentView != tt.want {
				t.Fatalf("view = %v, want %v", m.currentView, tt.want)
			}
			if cmd == nil {
				t.Error("switching views should start a load")
			}

			// esc in the view asks to go back home.
			_, back := press(t, m, "esc")
			if back == nil {
				t.Fatal("esc returned no command")
			}
			if _, ok := back().(ui.BackMsg); !ok {
				t.Fatal("esc did not emit BackMsg")
			}
			m, _ = update(t, m, ui.BackMsg{})
			if m.currentView != ViewList {
				t.Errorf("after back view = %v, want list", m.currentView)
			}
		})
	}
}

func TestSearchCapturesGlobalKeys(t *testing.T) {
	m := signedInModel(t)
	m, _ = press(t, m, "/")
	m, _ = press(t, m, "w")
	if m.currentView != ViewList {
		t.Errorf("view = %v, typing in search must not navigate", m.currentView)
	}
}

func TestHelpToggle(t *testing.T) {
	m := signedInModel(t)
	m, _ = press(t, m, "?")
	if m.currentView != ViewHelp {
		t.Fatalf("view = %v, want help", m.currentView)
	}
	m, _ = press(t, m, "esc")
	if m.currentView != ViewList {
		t.Errorf("view = %v, want list", m.currentView)
	}
}

func TestAdminModeRequiresAdmin(t *testing.T) {
	m := signedInModel(t)
	m, _ = press(t, m, "A")
	if m.currentView != ViewList {
		t.Errorf("view = %v, want list", m.currentView)
	}
	if !m.toast.IsError {
		t.Errorf("toast = %+v, want error", m.toast)
	}
}

// ─── Command palette ─────────────────────────────────────

func TestCommandPalette(t *testing.T) {
	tests := []struct {
		input     string
		want      ViewState
		wantError bool
	}{
		{input: "wallet", want: ViewWallet},
		{input: "inbox", want: ViewNotifications},
		{input: "profile", want: ViewProfile},
		{input: "search review", want: ViewList},
		{input: "sort difficulty", want: ViewList},
		{input: "sort popularity", want: ViewList, wantError: true},
		{input: "dance", want: ViewList, wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := signedInModel(t)
			m, _ = update(t, m, command.CommandMsg(tt.input))
			if m.currentView != tt.want {
				t.Errorf("view = %v, want %v", m.currentView, tt.want)
			}
			if m.toast.IsError != tt.wantError {
				t.Errorf("toast = %+v, wantError %v", m.toast, tt.wantError)
			}
		})
	}
}
