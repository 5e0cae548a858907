package history

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/ui"
)

type fakeBackend struct {
	txs      []model.Transaction
	disputed []int64
}

func (f *fakeBackend) ListTransactions(context.Context) ([]model.Transaction, error) {
	return f.txs, nil
}

func (f *fakeBackend) RaiseDispute(_ context.Context, txID int64, _, _ string) error {
	f.disputed = append(f.disputed, txID)
	return nil
}

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ledger() []model.Transaction {
	return []model.Transaction{
		{ID: 1, Type: model.TxEarning, Status: model.TxCompleted, Amount: model.MustAmount("3"), CreatedAt: now.Add(-time.Hour)},
		{ID: 2, Type: model.TxEarning, Status: model.TxFailed, Amount: model.MustAmount("2"), CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 3, Type: model.TxEarning, Status: model.TxFailed, Amount: model.MustAmount("2"), CreatedAt: now.Add(-30 * time.Hour)},
		{ID: 4, Type: model.TxWithdrawal, Status: model.TxPending, Amount: model.MustAmount("10"), CreatedAt: now},
	}
}

func loaded(t *testing.T, b *fakeBackend) Model {
	t.Helper()
	m := New(b, keys.DefaultKeyMap(), "$", 100, 30)
	m.now = func() time.Time { return now }
	msg := m.Load()()
	m, _ = m.Update(msg)
	return m
}

func visibleIDs(m Model) []int64 {
	var out []int64
	for _, tx := range m.Visible() {
		out = append(out, tx.ID)
	}
	return out
}

// ─── Filtering ───────────────────────────────────────────

func TestTabCyclesFilters(t *testing.T) {
	m := loaded(t, &fakeBackend{txs: ledger()})

	want := [][]int64{
		{1, 2, 3, 4},
		{1},
		{4},
		{2, 3},
		{1, 2, 3, 4},
	}
	for i, ids := range want {
		got := visibleIDs(m)
		if len(got) != len(ids) {
			t.Fatalf("step %d: visible = %v, want %v", i, got, ids)
		}
		for j := range ids {
			if got[j] != ids[j] {
				t.Fatalf("step %d: visible = %v, want %v", i, got, ids)
			}
		}
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
}

// ─── Disputes ────────────────────────────────────────────

func TestDisputeGate(t *testing.T) {
	tests := []struct {
		name     string
		down     int
		wantForm bool
	}{
		{name: "completed earning", down: 0, wantForm: false},
		{name: "recent failed earning", down: 1, wantForm: true},
		{name: "failed earning past window", down: 2, wantForm: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loaded(t, &fakeBackend{txs: ledger()})
			for range tt.down {
				m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
			}

			m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
			if m.Capturing() != tt.wantForm {
				t.Fatalf("form open = %v, want %v", m.Capturing(), tt.wantForm)
			}
			if tt.wantForm {
				return
			}
			if cmd == nil {
				t.Fatal("expected an error toast")
			}
			toast, ok := cmd().(ui.ToastMsg)
			if !ok || !toast.IsError {
				t.Errorf("msg = %#v, want error toast", toast)
			}
		})
	}
}

func TestEscClosesDisputeForm(t *testing.T) {
	b := &fakeBackend{txs: ledger()}
	m := loaded(t, b)
	m.SetFilter(model.TxFailed)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	if !m.Capturing() {
		t.Fatal("form not opened for eligible row")
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.Capturing() {
		t.Error("esc should close the form")
	}
	if len(b.disputed) != 0 {
		t.Errorf("disputes raised = %v, want none", b.disputed)
	}
}
