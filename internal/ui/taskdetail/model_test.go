package taskdetail

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/submission"
)

// blockingSubmitter holds SubmitTask until release is closed.
type blockingSubmitter struct {
	entered chan struct{}
	release chan struct{}
	err     error
}

func newBlockingSubmitter(err error) *blockingSubmitter {
	return &blockingSubmitter{entered: make(chan struct{}), release: make(chan struct{}), err: err}
}

func (s *blockingSubmitter) SubmitTask(context.Context, int64, []model.Proof) (*api.SubmissionReceipt, error) {
	close(s.entered)
	<-s.release
	if s.err != nil {
		return nil, s.err
	}
	return &api.SubmissionReceipt{}, nil
}

func timedTask() model.Task {
	return model.Task{
		ID:            3,
		Title:         "Follow the page",
		TimeInSeconds: 60,
		Steps:         []string{"Open", "Follow"},
		ApprovalType:  model.ApprovalAutomatic,
	}
}

// started opens the task and lets the availability check pass.
func started(t *testing.T, deps Deps) Model {
	t.Helper()
	m := New(deps, keys.DefaultKeyMap(), 80, 24)
	m.Open(timedTask())
	m, cmd := m.Update(availabilityMsg{gen: m.gen, ok: true})
	if cmd == nil {
		t.Fatal("start did not schedule a tick")
	}
	if m.Flow().State() != submission.StateInProgress {
		t.Fatalf("state = %v, want in-progress", m.Flow().State())
	}
	return m
}

// ─── Countdown ───────────────────────────────────────────

func TestTickAdvancesCountdown(t *testing.T) {
	m := started(t, Deps{})
	m, cmd := m.Update(tickMsg{gen: m.gen})
	if cmd == nil {
		t.Error("tick not rescheduled")
	}
	if got := m.Flow().Remaining(); got != 59*time.Second {
		t.Errorf("remaining = %v, want 59s", got)
	}
}

func TestStaleTickIgnored(t *testing.T) {
	m := started(t, Deps{})
	old := m.gen
	m.Open(timedTask())
	m, cmd := m.Update(tickMsg{gen: old})
	if cmd != nil {
		t.Error("stale tick rescheduled")
	}
	if m.Flow().State() != submission.StatePreview {
		t.Errorf("state = %v, want preview", m.Flow().State())
	}
}

func TestTickWhileSubmittingLeavesFlowAlone(t *testing.T) {
	tests := []struct {
		name          string
		submitErr     error
		wantState     submission.State
		wantRemaining time.Duration
	}{
		{name: "accepted", wantState: submission.StateCompleted, wantRemaining: 60 * time.Second},
		{name: "rejected", submitErr: errors.New("duplicate"), wantState: submission.StateInProgress, wantRemaining: 58 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := newBlockingSubmitter(tt.submitErr)
			m := started(t, Deps{Submitter: sub})

			cmd := m.submit()
			if cmd == nil || !m.busy {
				t.Fatal("submit did not start")
			}
			done := make(chan tea.Msg)
			go func() { done <- cmd() }()
			<-sub.entered

			// Both ticks land while the submit command owns the flow.
			for range 2 {
				var tick tea.Cmd
				m, tick = m.Update(tickMsg{gen: m.gen})
				if tick == nil {
					t.Fatal("tick while busy was not rescheduled")
				}
			}
			if m.pending != 2*time.Second {
				t.Errorf("pending = %v, want 2s", m.pending)
			}

			close(sub.release)
			m, _ = m.Update((<-done).(submittedMsg))
			if m.busy || m.pending != 0 {
				t.Errorf("busy = %v pending = %v after settle", m.busy, m.pending)
			}
			if m.Flow().State() != tt.wantState {
				t.Errorf("state = %v, want %v", m.Flow().State(), tt.wantState)
			}
			if got := m.Flow().Remaining(); got != tt.wantRemaining {
				t.Errorf("remaining = %v, want %v", got, tt.wantRemaining)
			}
		})
	}
}
