// Package taskdetail shows one task and drives its submission flow.
package taskdetail

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/cooldown"
	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/submission"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/ui"
	"github.com/nhle/taskflow/internal/wallet"
)

// TaskSubmittedMsg tells the parent a submission was accepted.
type TaskSubmittedMsg struct {
	Task    model.Task
	Message string
}

// tickMsg advances the countdown of the attempt identified by gen.
type tickMsg struct{ gen int }

type availabilityMsg struct {
	gen    int
	ok     bool
	reason string
	err    error
}

type submittedMsg struct {
	gen int
	err error
}

// Availability asks the backend whether a task may be started.
type Availability interface {
	TaskAvailability(ctx context.Context, taskID int64) (*model.TaskAvailability, error)
}

// Deps are the collaborators the view calls.
type Deps struct {
	Availability Availability
	Uploader     submission.Uploader
	Submitter    submission.Submitter
	Tracker      *cooldown.Tracker
	UserID       func() int64
	Currency     string
}

const unavailableMessage = "This task is not available right now"

// proofBindings holds form values on the heap so huh's Value() pointers
// survive Bubble Tea model copies.
type proofBindings struct {
	values map[model.ProofType]*string
}

// Model is the task detail view component.
type Model struct {
	deps     Deps
	keys     *keys.KeyMap
	flow     *submission.Flow
	gen      int
	busy     bool
	pending  time.Duration
	form     *huh.Form
	fb       *proofBindings
	viewport viewport.Model
	width    int
	height   int
}

// New creates a new detail view model.
func New(deps Deps, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	return Model{
		deps:     deps,
		keys:     k,
		viewport: vp,
		width:    width,
		height:   height,
	}
}

// Open shows task in preview, discarding any previous attempt.
func (m *Model) Open(task model.Task) {
	m.flow = submission.NewFlow(task)
	m.gen++
	m.busy = false
	m.pending = 0
	m.form = nil
	m.fb = nil
	m.viewport.SetContent(m.renderBody())
	m.viewport.GotoTop()
}

// Flow exposes the current attempt.
func (m Model) Flow() *submission.Flow { return m.flow }

// Capturing reports whether the proof form has keyboard focus or a
// request is in flight. Navigation waits until the request settles.
func (m Model) Capturing() bool {
	return m.form != nil || m.busy
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.flow == nil {
		return m, nil
	}

	switch msg := msg.(type) {
	case tickMsg:
		return m.handleTick(msg)

	case availabilityMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			return m, ui.ErrorToast(msg.err)
		}
		if !msg.ok {
			return m, ui.ErrorText(msg.reason)
		}
		if err := m.flow.Start(); err != nil {
			return m, ui.ErrorToast(err)
		}
		m.refreshBody()
		return m, m.scheduleTick()

	case submittedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.busy = false
		m.applyPending()
		m.refreshBody()
		if msg.err != nil {
			return m, ui.ErrorToast(msg.err)
		}
		task, message := m.flow.Task(), m.flow.Message()
		return m, func() tea.Msg { return TaskSubmittedMsg{Task: task, Message: message} }
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.busy {
			return m, nil
		}
		return m, ui.Back

	case key.Matches(msg, m.keys.Start):
		if m.flow.State() != submission.StatePreview || m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.checkAvailability()

	case key.Matches(msg, m.keys.Down) && m.flow.State() == submission.StateInProgress:
		m.flow.Next()
		m.refreshBody()
		return m, nil

	case key.Matches(msg, m.keys.Up) && m.flow.State() == submission.StateInProgress:
		m.flow.Prev()
		m.refreshBody()
		return m, nil

	case key.Matches(msg, m.keys.Select) && m.flow.OnLastStep():
		cmd := m.openForm()
		return m, cmd

	case key.Matches(msg, m.keys.Submit):
		cmd := m.submit()
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleTick(msg tickMsg) (Model, tea.Cmd) {
	if msg.gen != m.gen {
		return m, nil
	}
	// The flow is owned by the submit command while busy, so it is not
	// read here until submittedMsg hands it back.
	if m.busy {
		m.pending += time.Second
		return m, m.scheduleTick()
	}
	if m.flow.State() != submission.StateInProgress {
		return m, nil
	}
	expired := m.flow.Tick(time.Second)
	m.refreshBody()
	if expired || m.flow.Remaining() <= 0 {
		return m, nil
	}
	return m, m.scheduleTick()
}

func (m *Model) applyPending() {
	if m.pending > 0 {
		m.flow.Tick(m.pending)
		m.pending = 0
	}
}

func (m Model) scheduleTick() tea.Cmd {
	gen := m.gen
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

// checkAvailability consults the local completion counters, then the
// backend, before the attempt starts.
func (m Model) checkAvailability() tea.Cmd {
	deps, task, gen := m.deps, m.flow.Task(), m.gen
	return func() tea.Msg {
		ctx := context.Background()
		if deps.Tracker != nil && deps.UserID != nil {
			ok, reason, err := deps.Tracker.Allowed(ctx, task.ID, deps.UserID(), cooldown.LimitsFor(task))
			if err != nil {
				return availabilityMsg{gen: gen, err: err}
			}
			if !ok {
				return availabilityMsg{gen: gen, reason: reason}
			}
		}
		if deps.Availability == nil {
			return availabilityMsg{gen: gen, ok: true}
		}
		avail, err := deps.Availability.TaskAvailability(ctx, task.ID)
		if err != nil {
			return availabilityMsg{gen: gen, err: err}
		}
		if !avail.CanComplete {
			reason := avail.Message
			if reason == "" {
				reason = unavailableMessage
			}
			return availabilityMsg{gen: gen, reason: reason}
		}
		return availabilityMsg{gen: gen, ok: true}
	}
}

func (m *Model) submit() tea.Cmd {
	if m.busy || m.flow.State() != submission.StateInProgress {
		return nil
	}
	m.busy = true
	deps, flow, gen := m.deps, m.flow, m.gen
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := flow.Submit(ctx, deps.Uploader, deps.Submitter); err != nil {
			return submittedMsg{gen: gen, err: err}
		}
		if deps.Tracker != nil && deps.UserID != nil {
			// A failed counter write only weakens the local throttle.
			_, _ = deps.Tracker.Record(ctx, flow.Task().ID, deps.UserID())
		}
		return submittedMsg{gen: gen}
	}
}

func (m *Model) openForm() tea.Cmd {
	reqs := m.flow.Task().ProofRequirements
	if len(reqs) == 0 {
		return m.submit()
	}

	m.fb = &proofBindings{values: make(map[model.ProofType]*string, len(reqs))}
	fields := make([]huh.Field, 0, len(reqs))
	for _, req := range reqs {
		v := m.flow.Proof(req.Type)
		m.fb.values[req.Type] = &v
		fields = append(fields, proofField(req, &v))
	}

	m.form = huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(formWidth(m.width)).
		WithShowHelp(true)
	return m.form.Init()
}

func proofField(req model.ProofRequirement, value *string) huh.Field {
	title := proofTitle(req.Type)
	switch req.Type {
	case model.ProofScreenshot:
		return huh.NewInput().
			Title(title).
			Description(req.Description).
			Placeholder("path/to/screenshot.png").
			Value(value).
			Validate(validateImagePath)
	case model.ProofURL:
		return huh.NewInput().
			Title(title).
			Description(req.Description).
			Placeholder("https://").
			Value(value).
			Validate(validateURL)
	default:
		return huh.NewText().
			Title(title).
			Description(req.Description).
			Value(value).
			Validate(validateRequired(title))
	}
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.form = nil
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		for kind, v := range m.fb.values {
			m.flow.SetProof(kind, *v)
		}
		m.form = nil
		m.refreshBody()
		cmd := m.submit()
		return m, cmd
	case huh.StateAborted:
		m.form = nil
		return m, nil
	}
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.flow == nil {
		return ""
	}
	if m.form != nil {
		title := theme.TitleStyle.Render("Proof for " + m.flow.Task().Title)
		return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n" + m.form.View())
	}
	return m.viewport.View()
}

func (m *Model) refreshBody() {
	m.viewport.SetContent(m.renderBody())
}

func (m Model) renderBody() string {
	if m.flow == nil {
		return ""
	}
	task := m.flow.Task()
	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render(task.Title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  %s  %s  %s\n\n",
		theme.RewardStyle.Render(wallet.FormatCurrency(task.Reward, m.deps.Currency)),
		theme.DifficultyStyle(string(task.Difficulty)).Render(string(task.Difficulty)),
		theme.ApprovalStyle(string(task.ApprovalType)).Render(string(task.ApprovalType)),
		theme.HelpStyle.Render(task.Category+" · "+task.TimeEstimate),
	)
	if task.Description != "" {
		b.WriteString(task.Description)
		b.WriteString("\n\n")
	}

	switch m.flow.State() {
	case submission.StatePreview:
		b.WriteString(theme.TitleStyle.Render("Steps"))
		b.WriteString("\n")
		for i, step := range task.Steps {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
		}
		if len(task.ProofRequirements) > 0 {
			b.WriteString("\n")
			b.WriteString(theme.TitleStyle.Render("Proof required"))
			b.WriteString("\n")
			for _, req := range task.ProofRequirements {
				fmt.Fprintf(&b, "  • %s: %s\n", proofTitle(req.Type), req.Description)
			}
		}
		b.WriteString("\n")
		if m.busy {
			b.WriteString(theme.HelpStyle.Render("Checking availability..."))
		} else {
			b.WriteString(theme.HelpStyle.Render("Press s to start."))
		}

	case submission.StateInProgress:
		fmt.Fprintf(&b, "%s  %s\n\n",
			theme.BadgeStyle.Render(formatRemaining(m.flow.Remaining())),
			theme.HelpStyle.Render(fmt.Sprintf("step %d of %d", m.flow.Step()+1, max(len(task.Steps), 1))),
		)
		if len(task.Steps) > 0 {
			b.WriteString(task.Steps[m.flow.Step()])
			b.WriteString("\n\n")
		}
		if m.flow.OnLastStep() {
			for _, req := range task.ProofRequirements {
				value := m.flow.Proof(req.Type)
				if value == "" {
					value = theme.HelpStyle.Render("missing")
				}
				fmt.Fprintf(&b, "  %s: %s\n", proofTitle(req.Type), value)
			}
			b.WriteString("\n")
			switch {
			case m.busy:
				b.WriteString(theme.HelpStyle.Render("Submitting..."))
			case m.flow.Ready():
				b.WriteString(theme.HelpStyle.Render("enter edit proofs · ctrl+s submit"))
			default:
				b.WriteString(theme.HelpStyle.Render("enter add proofs"))
			}
		} else {
			b.WriteString(theme.HelpStyle.Render("j next step · k previous step"))
		}

	case submission.StateCompleted:
		b.WriteString(theme.InfoToastStyle.Render(m.flow.Message()))
		b.WriteString("\n\n")
		b.WriteString(theme.HelpStyle.Render("esc back to tasks"))
	}

	return b.String()
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.form != nil {
		m.form = m.form.WithWidth(formWidth(width))
	}
}

func proofTitle(kind model.ProofType) string {
	switch kind {
	case model.ProofScreenshot:
		return "Screenshot"
	case model.ProofURL:
		return "Link"
	default:
		return "Text"
	}
}

func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return "time is up"
	}
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d left", int(d.Minutes()), int(d.Seconds())%60)
}

func formWidth(width int) int {
	return min(max(width-4, 40), 100)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return fmt.Errorf("enter a link starting with http:// or https://")
	}
	return nil
}

func validateImagePath(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("screenshot is required")
	}
	info, err := os.Stat(s)
	if err != nil {
		return fmt.Errorf("cannot read %s", s)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", s)
	}
	return nil
}
