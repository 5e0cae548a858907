package wallet

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/ui"
)

type fakeBackend struct {
	profile   *model.Profile
	txErr     error
	withdrawn int
}

func (f *fakeBackend) Profile(context.Context) (*model.Profile, error) { return f.profile, nil }

func (f *fakeBackend) ListTransactions(context.Context) ([]model.Transaction, error) {
	if f.txErr != nil {
		return nil, f.txErr
	}
	return []model.Transaction{{ID: 1, Type: model.TxEarning, Status: model.TxCompleted, Amount: model.MustAmount("4")}}, nil
}

func (f *fakeBackend) ListWithdrawals(context.Context) ([]model.Withdrawal, error) { return nil, nil }

func (f *fakeBackend) CreateWithdrawal(context.Context, model.WithdrawalRequest) (*model.Withdrawal, error) {
	f.withdrawn++
	return &model.Withdrawal{ID: 1}, nil
}

func load(m Model) Model {
	m, _ = m.Update(m.Load()())
	return m
}

var withdrawKey = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("W")}

// ─── Loading ─────────────────────────────────────────────

func TestLoadJoinFailureKeepsPreviousFigures(t *testing.T) {
	b := &fakeBackend{profile: &model.Profile{Balance: model.MustAmount("20")}}
	m := load(New(b, keys.DefaultKeyMap(), "$", 100, 30))
	if m.Profile() == nil {
		t.Fatal("profile not loaded")
	}

	b.profile = &model.Profile{Balance: model.MustAmount("99")}
	b.txErr = errors.New("boom")
	msg := m.Load()().(LoadedMsg)
	if msg.Err == nil || msg.Profile != nil {
		t.Fatalf("msg = %+v, want a single failure and no partial data", msg)
	}

	m, cmd := m.Update(msg)
	if cmd == nil {
		t.Error("expected an error toast")
	}
	if got := m.Profile().Balance.String(); got != "20.00" {
		t.Errorf("balance = %s, want previous 20.00", got)
	}
}

// ─── Withdraw gate ───────────────────────────────────────

func TestWithdrawGate(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		wantForm bool
	}{
		{name: "no status", status: "", wantForm: false},
		{name: "pending", status: model.IDStatusPending, wantForm: false},
		{name: "rejected", status: model.IDStatusRejected, wantForm: false},
		{name: "approved", status: model.IDStatusApproved, wantForm: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{profile: &model.Profile{Balance: model.MustAmount("20"), GovernmentIDStatus: tt.status}}
			m := load(New(b, keys.DefaultKeyMap(), "$", 100, 30))

			m, cmd := m.Update(withdrawKey)
			if m.Capturing() != tt.wantForm {
				t.Fatalf("form open = %v, want %v", m.Capturing(), tt.wantForm)
			}
			if !tt.wantForm {
				toast, ok := cmd().(ui.ToastMsg)
				if !ok || !toast.IsError {
					t.Errorf("msg = %#v, want error toast", toast)
				}
			}
			if b.withdrawn != 0 {
				t.Errorf("withdrawals created = %d, want 0", b.withdrawn)
			}
		})
	}
}

func TestWithdrawBeforeLoadIsBlocked(t *testing.T) {
	m := New(&fakeBackend{}, keys.DefaultKeyMap(), "$", 100, 30)
	m, _ = m.Update(withdrawKey)
	if m.Capturing() {
		t.Error("form opened without a profile")
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"12.50", false},
		{" 3 ", false},
		{"0", true},
		{"-4", true},
		{"abc", true},
		{"NaN", true},
		{"Inf", true},
		{"-Inf", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if err := validateAmount(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("validateAmount(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
