package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/notify"
	"github.com/nhle/taskflow/internal/ui"
)

type fakeRemote struct {
	list    []model.Notification
	listErr error
	marked  []int64
	all     int
}

func (f *fakeRemote) ListNotifications(context.Context) ([]model.Notification, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Notification, len(f.list))
	copy(out, f.list)
	return out, nil
}

func (f *fakeRemote) MarkNotificationRead(_ context.Context, id int64) error {
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeRemote) MarkAllNotificationsRead(context.Context) error {
	f.all++
	return nil
}

func inbox() []model.Notification {
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	return []model.Notification{
		{ID: 1, Title: "Approved", Type: model.NotificationSuccess, CreatedAt: now},
		{ID: 2, Title: "Rejected", Type: model.NotificationError, CreatedAt: now.Add(-time.Hour)},
	}
}

func newPanel(remote *fakeRemote) (Model, *notify.Center) {
	center := notify.NewCenter(remote, nil, func() int64 { return 1 }, nil)
	return New(center, keys.DefaultKeyMap(), 80, 24), center
}

func opened(t *testing.T, remote *fakeRemote) (Model, *notify.Center) {
	t.Helper()
	m, center := newPanel(remote)
	m, _ = m.Update(m.Open()())
	if len(m.Items()) != len(remote.list) {
		t.Fatalf("items = %d, want %d", len(m.Items()), len(remote.list))
	}
	return m, center
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// unreadFrom runs cmd and returns the unread count of the ChangedMsg it
// carries, alone or inside a batch.
func unreadFrom(t *testing.T, cmd tea.Cmd) int {
	t.Helper()
	if cmd == nil {
		t.Fatal("no command")
	}
	switch msg := cmd().(type) {
	case ChangedMsg:
		return msg.Unread
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if changed, ok := c().(ChangedMsg); ok {
				return changed.Unread
			}
		}
	}
	t.Fatal("no ChangedMsg")
	return -1
}

// runMark executes the batched mark command and returns the markedMsg.
func runMark(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	for _, c := range cmd().(tea.BatchMsg) {
		if msg, ok := c().(markedMsg); ok {
			return msg
		}
	}
	t.Fatal("no markedMsg")
	return nil
}

// ─── Read state ──────────────────────────────────────────

func TestMarkReadUpdatesBadge(t *testing.T) {
	remote := &fakeRemote{list: inbox()}
	m, center := opened(t, remote)

	m, cmd := m.Update(runes("m"))
	if !m.Items()[0].IsRead {
		t.Fatal("row not flipped before the backend answered")
	}
	if got := unreadFrom(t, cmd); got != 1 {
		t.Errorf("unread = %d, want 1", got)
	}

	m, _ = m.Update(runMark(t, cmd))
	if center.Unread() != 1 || len(remote.marked) != 1 || remote.marked[0] != 1 {
		t.Errorf("center unread = %d, marked = %v", center.Unread(), remote.marked)
	}
}

func TestMarkAllDrivesBadgeToZero(t *testing.T) {
	remote := &fakeRemote{list: inbox()}
	m, center := opened(t, remote)

	m, cmd := m.Update(runes("M"))
	if got := unreadFrom(t, cmd); got != 0 {
		t.Errorf("unread = %d, want 0", got)
	}
	m, cmd = m.Update(runMark(t, cmd))
	if got := unreadFrom(t, cmd); got != 0 {
		t.Errorf("unread after backend = %d, want 0", got)
	}
	if remote.all != 1 || center.Unread() != 0 {
		t.Errorf("mark-all calls = %d, center unread = %d", remote.all, center.Unread())
	}

	// Nothing left to mark.
	if _, cmd = m.Update(runes("M")); cmd != nil {
		t.Error("M with no unread rows should do nothing")
	}
}

func TestStaleReloadKeepsReadFlag(t *testing.T) {
	remote := &fakeRemote{list: inbox()}
	m, _ := opened(t, remote)

	// A reload computed before the mark lands afterwards.
	stale := m.Open()()

	m, cmd := m.Update(runes("m"))
	m, _ = m.Update(runMark(t, cmd))
	if !m.Items()[0].IsRead {
		t.Fatal("row not read after mark")
	}

	m, cmd = m.Update(stale)
	if !m.Items()[0].IsRead {
		t.Error("stale reload turned a read row back to unread")
	}
	if got := unreadFrom(t, cmd); got != 1 {
		t.Errorf("unread = %d, want 1", got)
	}
}

func TestStalePollerListKeepsReadFlag(t *testing.T) {
	remote := &fakeRemote{list: inbox()}
	m, _ := opened(t, remote)

	m, _ = m.Update(runes("m"))
	m.SetNotifications(inbox())
	if !m.Items()[0].IsRead {
		t.Error("poller list turned a read row back to unread")
	}
	if m.Items()[1].IsRead {
		t.Error("unrelated row marked read")
	}
}

// ─── Navigation ──────────────────────────────────────────

func TestEscClosesPanel(t *testing.T) {
	remote := &fakeRemote{list: inbox()}
	m, _ := opened(t, remote)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc returned no command")
	}
	if _, ok := cmd().(ui.BackMsg); !ok {
		t.Error("esc did not emit BackMsg")
	}

	// The in-memory cache is gone, so a failing backend falls through to
	// the (absent) mirror and the reopen fails.
	remote.listErr = errors.New("offline")
	msg := m.Open()().(LoadedMsg)
	if msg.Err == nil {
		t.Errorf("reopen served %d rows after close", len(msg.Notifications))
	}
}

// ─── Rendering ───────────────────────────────────────────

func TestFallbackIsLabelledOffline(t *testing.T) {
	remote := &fakeRemote{list: inbox()}
	m, _ := opened(t, remote)
	if strings.Contains(m.View(), "offline copy") {
		t.Fatal("remote list labelled offline")
	}

	remote.listErr = errors.New("offline")
	msg := m.Open()().(LoadedMsg)
	if msg.Err != nil || msg.Source != notify.SourceMemory {
		t.Fatalf("msg = %+v, want memory fallback", msg)
	}
	m, _ = m.Update(msg)
	if !strings.Contains(m.View(), "offline copy") {
		t.Error("fallback list not labelled offline")
	}
}

func TestResetClearsRows(t *testing.T) {
	m, _ := opened(t, &fakeRemote{list: inbox()})
	m.Reset()
	if len(m.Items()) != 0 {
		t.Errorf("items = %d after reset", len(m.Items()))
	}
}
