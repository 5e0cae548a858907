// Package submission drives a single task from preview through proof
// collection to a successful submission.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/model"
)

// State is the phase of a task attempt.
type State int

const (
	StatePreview State = iota
	StateInProgress
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in-progress"
	case StateCompleted:
		return "completed"
	default:
		return "preview"
	}
}

// Completion messages shown once the backend accepts the submission.
const (
	MessageAutomatic = "Task completed! Reward added to your balance."
	MessageManual    = "Task submitted for review!"
)

// ErrNotStarted is returned when submitting a task that is not in progress.
var ErrNotStarted = errors.New("task has not been started")

const missingProofsMessage = "Please provide all required proofs"

// Uploader stores a local screenshot and returns its public URL.
type Uploader interface {
	UploadFile(ctx context.Context, path string) (string, error)
}

// Submitter sends the collected proofs to the backend.
type Submitter interface {
	SubmitTask(ctx context.Context, taskID int64, proofs []model.Proof) (*api.SubmissionReceipt, error)
}

// Flow is the state of one task attempt. It is not safe for concurrent use;
// the owning view drives it from the update loop.
type Flow struct {
	task      model.Task
	state     State
	step      int
	remaining time.Duration
	proofs    map[model.ProofType]string
	message   string
}

// NewFlow starts in preview for task.
func NewFlow(task model.Task) *Flow {
	return &Flow{
		task:   task,
		proofs: make(map[model.ProofType]string),
	}
}

func (f *Flow) Task() model.Task         { return f.task }
func (f *Flow) State() State             { return f.state }
func (f *Flow) Step() int                { return f.step }
func (f *Flow) Remaining() time.Duration { return f.remaining }

// Message is the completion message, empty until completed.
func (f *Flow) Message() string { return f.message }

// Start moves from preview to in-progress and arms the countdown.
func (f *Flow) Start() error {
	if f.state != StatePreview {
		return fmt.Errorf("cannot start task in state %s", f.state)
	}
	f.state = StateInProgress
	f.step = 0
	f.remaining = time.Duration(f.task.TimeInSeconds) * time.Second
	return nil
}

// Tick advances the countdown by elapsed. When it reaches zero the visible
// step jumps to the last one; the task is not submitted. Tick reports
// whether this call expired the timer.
func (f *Flow) Tick(elapsed time.Duration) bool {
	if f.state != StateInProgress || f.remaining <= 0 {
		return false
	}
	f.remaining -= elapsed
	if f.remaining > 0 {
		return false
	}
	f.remaining = 0
	f.step = f.lastStep()
	return true
}

// Next moves to the following step, stopping at the last one.
func (f *Flow) Next() {
	if f.state == StateInProgress && f.step < f.lastStep() {
		f.step++
	}
}

// Prev moves to the previous step, stopping at the first one.
func (f *Flow) Prev() {
	if f.state == StateInProgress && f.step > 0 {
		f.step--
	}
}

// OnLastStep reports whether proof inputs should be shown.
func (f *Flow) OnLastStep() bool {
	return f.state == StateInProgress && f.step == f.lastStep()
}

func (f *Flow) lastStep() int {
	if len(f.task.Steps) == 0 {
		return 0
	}
	return len(f.task.Steps) - 1
}

// SetProof records the value for a proof type: a local file path for a
// screenshot, the text itself, or a URL.
func (f *Flow) SetProof(kind model.ProofType, value string) {
	f.proofs[kind] = strings.TrimSpace(value)
}

// Proof returns the recorded value for kind.
func (f *Flow) Proof(kind model.ProofType) string { return f.proofs[kind] }

// Missing lists the requirements that still lack a value.
func (f *Flow) Missing() []model.ProofRequirement {
	var missing []model.ProofRequirement
	for _, req := range f.task.ProofRequirements {
		if f.proofs[req.Type] == "" {
			missing = append(missing, req)
		}
	}
	return missing
}

// Ready reports whether the task is in progress and every declared proof
// requirement is satisfied.
func (f *Flow) Ready() bool {
	return f.state == StateInProgress && len(f.Missing()) == 0
}

// Submit uploads the screenshot proof if any, then submits the proofs.
// Any failure leaves the flow in progress so the user can try again.
func (f *Flow) Submit(ctx context.Context, uploader Uploader, submitter Submitter) (*api.SubmissionReceipt, error) {
	if f.state != StateInProgress {
		return nil, ErrNotStarted
	}
	if len(f.Missing()) > 0 {
		return nil, &api.ValidationError{Field: "proofs", Message: missingProofsMessage}
	}

	var proofs []model.Proof
	for _, req := range f.task.ProofRequirements {
		value := f.proofs[req.Type]
		switch req.Type {
		case model.ProofScreenshot:
			url, err := uploader.UploadFile(ctx, value)
			if err != nil {
				return nil, fmt.Errorf("uploading screenshot: %w", err)
			}
			proofs = append(proofs, model.Proof{Type: req.Type, URL: url})
		case model.ProofURL:
			proofs = append(proofs, model.Proof{Type: req.Type, URL: value})
		default:
			proofs = append(proofs, model.Proof{Type: req.Type, Content: value})
		}
	}

	receipt, err := submitter.SubmitTask(ctx, f.task.ID, proofs)
	if err != nil {
		return nil, fmt.Errorf("submitting task %d: %w", f.task.ID, err)
	}

	f.state = StateCompleted
	if f.task.ApprovalType == model.ApprovalAutomatic {
		f.message = MessageAutomatic
	} else {
		f.message = MessageManual
	}
	return receipt, nil
}
