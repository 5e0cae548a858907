// Package admin renders the moderation queues of the admin console.
package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/ui"
	"github.com/nhle/taskflow/internal/wallet"
)

// Queue identifies one moderation tab.
type Queue int

const (
	QueueSubmissions Queue = iota
	QueueWithdrawals
	QueueIDChecks
	QueueDisputes
	QueueTasks
)

var queueNames = []string{"Submissions", "Withdrawals", "ID checks", "Disputes", "Tasks"}

func (q Queue) String() string { return queueNames[q] }

// Backend is the part of the API client the admin console uses.
type Backend interface {
	AdminStats(ctx context.Context) (*model.AdminStats, error)
	PendingSubmissions(ctx context.Context) ([]model.Submission, error)
	ReviewSubmission(ctx context.Context, taskID, submissionID int64, status model.ReviewStatus) (*model.ReviewResult, error)
	PendingWithdrawals(ctx context.Context) ([]model.Withdrawal, error)
	ProcessWithdrawal(ctx context.Context, id int64, status model.ReviewStatus) error
	PendingIDVerifications(ctx context.Context) ([]model.AdminUser, error)
	VerifyUserID(ctx context.Context, userID int64, status model.ReviewStatus) error
	ListDisputes(ctx context.Context) ([]model.Dispute, error)
	ResolveDispute(ctx context.Context, id int64, resolution model.DisputeResolution, feedback string) error
	PendingTasks(ctx context.Context) ([]model.Campaign, error)
	ReviewTask(ctx context.Context, taskID int64, status model.ReviewStatus, feedback string) error
}

// row is one pending item and the action that settles it.
type row struct {
	label  string
	detail string
	decide func(ctx context.Context, b Backend, approve bool) error
}

// loadedMsg carries every queue, fetched together.
type loadedMsg struct {
	Stats  *model.AdminStats
	Queues [][]row
	Err    error
}

type decidedMsg struct {
	approve bool
	err     error
}

// Model is the admin console.
type Model struct {
	backend  Backend
	keys     *keys.KeyMap
	currency string
	stats    *model.AdminStats
	queues   [][]row
	active   Queue
	cursor   int
	busy     bool
	loading  bool
	width    int
	height   int
}

// New creates the admin console.
func New(b Backend, k *keys.KeyMap, currency string, width, height int) Model {
	return Model{
		backend:  b,
		keys:     k,
		currency: currency,
		queues:   make([][]row, len(queueNames)),
		width:    width,
		height:   height,
	}
}

// Init returns nil; the console loads when shown.
func (m Model) Init() tea.Cmd { return nil }

// Pending returns the number of items waiting in q.
func (m Model) Pending(q Queue) int { return len(m.queues[q]) }

// Active returns the selected queue.
func (m Model) Active() Queue { return m.active }

// Load fetches the dashboard counters and every queue. Any failure fails
// the whole load.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	b, currency := m.backend, m.currency
	return func() tea.Msg {
		var (
			stats   *model.AdminStats
			subs    []model.Submission
			wds     []model.Withdrawal
			ids     []model.AdminUser
			disps   []model.Dispute
			pending []model.Campaign
		)
		err := ui.All(context.Background(),
			func(ctx context.Context) (err error) { stats, err = b.AdminStats(ctx); return },
			func(ctx context.Context) (err error) { subs, err = b.PendingSubmissions(ctx); return },
			func(ctx context.Context) (err error) { wds, err = b.PendingWithdrawals(ctx); return },
			func(ctx context.Context) (err error) { ids, err = b.PendingIDVerifications(ctx); return },
			func(ctx context.Context) (err error) { disps, err = b.ListDisputes(ctx); return },
			func(ctx context.Context) (err error) { pending, err = b.PendingTasks(ctx); return },
		)
		if err != nil {
			return loadedMsg{Err: err}
		}
		return loadedMsg{
			Stats: stats,
			Queues: [][]row{
				submissionRows(subs, currency),
				withdrawalRows(wds, currency),
				idRows(ids),
				disputeRows(disps, currency),
				taskRows(pending, currency),
			},
		}
	}
}

// Update handles messages for the admin console.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m, ui.ErrorToast(msg.Err)
		}
		m.stats = msg.Stats
		m.queues = msg.Queues
		m.clampCursor()
		return m, nil

	case decidedMsg:
		m.busy = false
		if msg.err != nil {
			return m, ui.ErrorToast(msg.err)
		}
		verdict := "Approved"
		if !msg.approve {
			verdict = "Rejected"
		}
		reload := m.Load()
		return m, tea.Batch(ui.InfoToast(verdict), reload)

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	rows := m.queues[m.active]
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, ui.Back
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.Load()
		return m, cmd
	case key.Matches(msg, m.keys.Tab):
		m.active = (m.active + 1) % Queue(len(queueNames))
		m.cursor = 0
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Approve), key.Matches(msg, m.keys.Reject):
		if m.busy || len(rows) == 0 {
			return m, nil
		}
		approve := key.Matches(msg, m.keys.Approve)
		m.busy = true
		r, b := rows[m.cursor], m.backend
		return m, func() tea.Msg {
			return decidedMsg{approve: approve, err: r.decide(context.Background(), b, approve)}
		}
	}
	return m, nil
}

func (m *Model) clampCursor() {
	if n := len(m.queues[m.active]); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// View renders the admin console.
func (m Model) View() string {
	names := make([]string, len(queueNames))
	for i, name := range queueNames {
		names[i] = fmt.Sprintf("%s (%d)", name, len(m.queues[i]))
	}

	sections := []string{theme.TitleStyle.Render("Admin console")}
	if m.stats != nil {
		sections = append(sections, theme.HelpStyle.Render(fmt.Sprintf(
			"%d users · %d tasks · %d pending submissions · %s paid out",
			m.stats.Users, m.stats.Tasks, m.stats.PendingSubmissions,
			wallet.FormatCurrency(m.stats.TotalEarnings, m.currency),
		)))
	}
	sections = append(sections, "", ui.RenderTabs(names, int(m.active)), "")

	rows := m.queues[m.active]
	switch {
	case m.loading && len(rows) == 0:
		sections = append(sections, theme.HelpStyle.Render("Loading..."))
	case len(rows) == 0:
		sections = append(sections, theme.HelpStyle.Render("Nothing waiting in this queue."))
	default:
		perPage := max(m.height-9, 1)
		start := max(m.cursor-perPage+1, 0)
		end := min(start+perPage, len(rows))
		lines := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			line := rows[i].label
			if rows[i].detail != "" {
				line += "  " + theme.HelpStyle.Render(rows[i].detail)
			}
			if i == m.cursor {
				line = theme.SelectedItemStyle.Render(line)
			} else {
				line = theme.ListItemStyle.Render(line)
			}
			lines = append(lines, line)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	hint := "tab queue · a approve · x reject · r refresh · esc back"
	if m.active == QueueDisputes {
		hint = "tab queue · a side with user · x side with advertiser · r refresh · esc back"
	}
	sections = append(sections, "", theme.HelpStyle.Render(hint))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the console dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func verdict(approve bool) model.ReviewStatus {
	if approve {
		return model.ReviewApproved
	}
	return model.ReviewRejected
}

func submissionRows(subs []model.Submission, currency string) []row {
	rows := make([]row, len(subs))
	for i, s := range subs {
		proofs := make([]string, 0, len(s.Proofs))
		for _, p := range s.Proofs {
			proofs = append(proofs, firstNonEmpty(p.URL, p.Content))
		}
		rows[i] = row{
			label:  fmt.Sprintf("#%d %s by %s · %s", s.ID, s.TaskTitle, s.UserName, wallet.FormatCurrency(s.Reward, currency)),
			detail: strings.Join(proofs, " | "),
			decide: func(ctx context.Context, b Backend, approve bool) error {
				_, err := b.ReviewSubmission(ctx, s.TaskID, s.ID, verdict(approve))
				return err
			},
		}
	}
	return rows
}

func withdrawalRows(wds []model.Withdrawal, currency string) []row {
	rows := make([]row, len(wds))
	for i, wd := range wds {
		rows[i] = row{
			label:  fmt.Sprintf("#%d %s · %s via %s", wd.ID, firstNonEmpty(wd.UserName, wd.UserEmail), wallet.FormatCurrency(wd.Amount, currency), wd.PaymentMethod),
			detail: wd.PaymentDetails,
			decide: func(ctx context.Context, b Backend, approve bool) error {
				return b.ProcessWithdrawal(ctx, wd.ID, verdict(approve))
			},
		}
	}
	return rows
}

func idRows(users []model.AdminUser) []row {
	rows := make([]row, len(users))
	for i, u := range users {
		rows[i] = row{
			label:  fmt.Sprintf("%s <%s>", u.Name, u.Email),
			detail: u.GovernmentIDURL,
			decide: func(ctx context.Context, b Backend, approve bool) error {
				return b.VerifyUserID(ctx, u.ID, verdict(approve))
			},
		}
	}
	return rows
}

func disputeRows(disps []model.Dispute, currency string) []row {
	rows := make([]row, 0, len(disps))
	for _, d := range disps {
		if d.Status != "" && d.Status != model.ReviewPending {
			continue
		}
		rows = append(rows, row{
			label:  fmt.Sprintf("#%d %s · %s · %s", d.ID, d.UserName, d.TaskTitle, wallet.FormatCurrency(d.Amount, currency)),
			detail: d.Reason,
			decide: func(ctx context.Context, b Backend, approve bool) error {
				resolution := model.ResolveForAdvertiser
				if approve {
					resolution = model.ResolveForUser
				}
				return b.ResolveDispute(ctx, d.ID, resolution, "")
			},
		})
	}
	return rows
}

func taskRows(tasks []model.Campaign, currency string) []row {
	rows := make([]row, len(tasks))
	for i, t := range tasks {
		rows[i] = row{
			label:  fmt.Sprintf("#%d %s · %s · budget %s", t.ID, t.Title, wallet.FormatCurrency(t.Reward, currency), wallet.FormatCurrency(t.TotalBudget, currency)),
			detail: t.Category,
			decide: func(ctx context.Context, b Backend, approve bool) error {
				return b.ReviewTask(ctx, t.ID, verdict(approve), "")
			},
		}
	}
	return rows
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
