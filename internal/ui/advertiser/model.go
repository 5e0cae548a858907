// Package advertiser renders the campaign dashboard for advertisers.
package advertiser

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/ui"
	"github.com/nhle/taskflow/internal/wallet"
)

// Backend is the part of the API client the dashboard uses.
type Backend interface {
	AdvertiserBalance(ctx context.Context) (*model.AdvertiserBalance, error)
	Campaigns(ctx context.Context) ([]model.Campaign, error)
	CampaignStats(ctx context.Context, taskID int64) (*model.CampaignStats, error)
	AdvertiserPendingSubmissions(ctx context.Context) ([]model.Submission, error)
	AdvertiserReviewSubmission(ctx context.Context, submissionID int64, status model.ReviewStatus) error
	AdvertiserMetadata(ctx context.Context) (*model.AdvertiserMetadata, error)
	CreateCampaign(ctx context.Context, in model.TaskInput) (*model.Campaign, error)
	CreatePaymentIntent(ctx context.Context, amount float64) (*model.PaymentIntent, error)
}

const (
	tabCampaigns = iota
	tabSubmissions
)

// LoadedMsg carries the joined dashboard fetch.
type LoadedMsg struct {
	Balance     *model.AdvertiserBalance
	Campaigns   []model.Campaign
	Submissions []model.Submission
	Err         error
}

type statsMsg struct {
	taskID int64
	stats  *model.CampaignStats
	err    error
}

type metadataMsg struct {
	categories []string
}

type createdMsg struct {
	campaign *model.Campaign
	err      error
}

type reviewedMsg struct {
	err error
}

type intentMsg struct {
	intent *model.PaymentIntent
	err    error
}

type topUpBindings struct {
	amount string
}

// Model is the advertiser dashboard.
type Model struct {
	backend     Backend
	keys        *keys.KeyMap
	currency    string
	balance     *model.AdvertiserBalance
	campaigns   []model.Campaign
	submissions []model.Submission
	stats       map[int64]*model.CampaignStats
	tab         int
	cursor      int
	loading     bool
	secret      string
	form        *huh.Form
	campaignFB  *campaignBindings
	topUpFB     *topUpBindings
	width       int
	height      int
}

// New creates the advertiser dashboard.
func New(b Backend, k *keys.KeyMap, currency string, width, height int) Model {
	return Model{
		backend:  b,
		keys:     k,
		currency: currency,
		stats:    make(map[int64]*model.CampaignStats),
		width:    width,
		height:   height,
	}
}

// Init returns nil; the dashboard loads when shown.
func (m Model) Init() tea.Cmd { return nil }

// Capturing reports whether a form has keyboard focus.
func (m Model) Capturing() bool { return m.form != nil }

// Load fetches the balance, campaigns and review queue together.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	b := m.backend
	return func() tea.Msg {
		var msg LoadedMsg
		msg.Err = ui.All(context.Background(),
			func(ctx context.Context) (err error) { msg.Balance, err = b.AdvertiserBalance(ctx); return },
			func(ctx context.Context) (err error) { msg.Campaigns, err = b.Campaigns(ctx); return },
			func(ctx context.Context) (err error) { msg.Submissions, err = b.AdvertiserPendingSubmissions(ctx); return },
		)
		if msg.Err != nil {
			return LoadedMsg{Err: msg.Err}
		}
		return msg
	}
}

// Update handles messages for the dashboard.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m, ui.ErrorToast(msg.Err)
		}
		m.balance = msg.Balance
		m.campaigns = msg.Campaigns
		m.submissions = msg.Submissions
		m.clampCursor()
		return m, nil

	case statsMsg:
		if msg.err != nil {
			return m, ui.ErrorToast(msg.err)
		}
		m.stats[msg.taskID] = msg.stats
		return m, nil

	case metadataMsg:
		m.campaignFB = newCampaignBindings(msg.categories)
		m.form = m.campaignFB.form(m.width)
		return m, m.form.Init()

	case createdMsg:
		if msg.err != nil {
			return m, ui.ErrorToast(msg.err)
		}
		reload := m.Load()
		return m, tea.Batch(ui.InfoToast("Campaign submitted for approval"), reload)

	case reviewedMsg:
		if msg.err != nil {
			return m, ui.ErrorToast(msg.err)
		}
		reload := m.Load()
		return m, tea.Batch(ui.InfoToast("Submission reviewed"), reload)

	case intentMsg:
		if msg.err != nil {
			return m, ui.ErrorToast(msg.err)
		}
		m.secret = msg.intent.ClientSecret
		return m, ui.InfoToast("Payment started. Finish it in the web dashboard to credit your balance.")
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		return m.handleKeys(k)
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, ui.Back
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.Load()
		return m, cmd
	case key.Matches(msg, m.keys.Tab):
		m.tab = (m.tab + 1) % 2
		m.cursor = 0
	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.rowCount()-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Select):
		if m.tab != tabCampaigns || len(m.campaigns) == 0 {
			return m, nil
		}
		id, b := m.campaigns[m.cursor].ID, m.backend
		return m, func() tea.Msg {
			stats, err := b.CampaignStats(context.Background(), id)
			return statsMsg{taskID: id, stats: stats, err: err}
		}
	case key.Matches(msg, m.keys.Approve), key.Matches(msg, m.keys.Reject):
		if m.tab != tabSubmissions || len(m.submissions) == 0 {
			return m, nil
		}
		status := model.ReviewRejected
		if key.Matches(msg, m.keys.Approve) {
			status = model.ReviewApproved
		}
		id, b := m.submissions[m.cursor].ID, m.backend
		return m, func() tea.Msg {
			return reviewedMsg{err: b.AdvertiserReviewSubmission(context.Background(), id, status)}
		}
	case key.Matches(msg, m.keys.New):
		b := m.backend
		return m, func() tea.Msg {
			var names []string
			// The form falls back to free text when metadata is unavailable.
			if meta, err := b.AdvertiserMetadata(context.Background()); err == nil {
				for _, c := range meta.Categories {
					names = append(names, c.Name)
				}
			}
			return metadataMsg{categories: names}
		}
	case key.Matches(msg, m.keys.TopUp):
		m.topUpFB = &topUpBindings{}
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Top-up amount").
				Value(&m.topUpFB.amount).
				Validate(positiveFloat("Amount")),
		)).WithWidth(min(max(m.width-4, 40), 100))
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.closeForm()
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		b := m.backend
		if m.topUpFB != nil {
			amount, _ := strconv.ParseFloat(strings.TrimSpace(m.topUpFB.amount), 64)
			m.closeForm()
			return m, func() tea.Msg {
				intent, err := b.CreatePaymentIntent(context.Background(), amount)
				return intentMsg{intent: intent, err: err}
			}
		}
		in, err := m.campaignFB.input()
		m.closeForm()
		if err != nil {
			return m, ui.ErrorToast(err)
		}
		return m, func() tea.Msg {
			camp, err := b.CreateCampaign(context.Background(), in)
			return createdMsg{campaign: camp, err: err}
		}
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	}
	return m, cmd
}

func (m *Model) closeForm() {
	m.form = nil
	m.campaignFB = nil
	m.topUpFB = nil
}

func (m Model) rowCount() int {
	if m.tab == tabSubmissions {
		return len(m.submissions)
	}
	return len(m.campaigns)
}

func (m *Model) clampCursor() {
	if n := m.rowCount(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// View renders the dashboard.
func (m Model) View() string {
	if m.form != nil {
		title := "New campaign"
		if m.topUpFB != nil {
			title = "Add funds"
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(theme.TitleStyle.Render(title) + "\n" + m.form.View())
	}

	sections := []string{theme.TitleStyle.Render("Advertiser dashboard")}
	if m.balance != nil {
		sections = append(sections, fmt.Sprintf("Balance %s · spent %s · on hold %s",
			theme.RewardStyle.Render(wallet.FormatCurrency(m.balance.Balance, m.currency)),
			wallet.FormatCurrency(m.balance.TotalSpent, m.currency),
			wallet.FormatCurrency(m.balance.HoldBalance, m.currency),
		))
	} else if m.loading {
		sections = append(sections, theme.HelpStyle.Render("Loading..."))
	}
	if m.secret != "" {
		sections = append(sections, theme.HelpStyle.Render("Pending payment: "+m.secret))
	}

	tabs := []string{
		fmt.Sprintf("Campaigns (%d)", len(m.campaigns)),
		fmt.Sprintf("Submissions (%d)", len(m.submissions)),
	}
	sections = append(sections, "", ui.RenderTabs(tabs, m.tab), "")

	if m.tab == tabCampaigns {
		sections = append(sections, m.renderCampaigns()...)
	} else {
		sections = append(sections, m.renderSubmissions()...)
	}

	sections = append(sections, "", theme.HelpStyle.Render("tab switch · enter stats · a/x review · N new campaign · t top up · esc back"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderCampaigns() []string {
	if len(m.campaigns) == 0 {
		return []string{theme.HelpStyle.Render("No campaigns yet. Press N to create one.")}
	}
	var lines []string
	for i, c := range m.campaigns {
		status := c.AdminStatus
		if status == "" {
			status = model.ReviewPending
		}
		line := fmt.Sprintf("#%d %-30s %s  budget %s / %s  %s",
			c.ID, c.Title,
			wallet.FormatCurrency(c.Reward, m.currency),
			wallet.FormatCurrency(c.RemainingBudget, m.currency),
			wallet.FormatCurrency(c.TotalBudget, m.currency),
			theme.StatusStyle(string(status)).Render(string(status)),
		)
		if i == m.cursor {
			lines = append(lines, theme.SelectedItemStyle.Render(line))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(line))
		}
		if s, ok := m.stats[c.ID]; ok {
			lines = append(lines, theme.HelpStyle.Render(fmt.Sprintf(
				"    %d submissions · %d approved · %d pending · %d rejected · spent %s",
				s.TotalSubmissions, s.ApprovedSubmissions, s.PendingSubmissions, s.RejectedSubmissions,
				wallet.FormatCurrency(s.SpentBudget, m.currency),
			)))
		}
		if c.AdminFeedback != "" {
			lines = append(lines, theme.HelpStyle.Render("    "+c.AdminFeedback))
		}
	}
	return lines
}

func (m Model) renderSubmissions() []string {
	if len(m.submissions) == 0 {
		return []string{theme.HelpStyle.Render("No submissions waiting for review.")}
	}
	var lines []string
	for i, s := range m.submissions {
		var proofs []string
		for _, p := range s.Proofs {
			if p.URL != "" {
				proofs = append(proofs, p.URL)
			} else if p.Content != "" {
				proofs = append(proofs, p.Content)
			}
		}
		line := fmt.Sprintf("#%d %s by %s  %s", s.ID, s.TaskTitle, s.UserName, theme.HelpStyle.Render(strings.Join(proofs, " | ")))
		if i == m.cursor {
			lines = append(lines, theme.SelectedItemStyle.Render(line))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(line))
		}
	}
	return lines
}

// SetSize updates the dashboard dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
