// Package wallet renders the balance screen and the payout form.
package wallet

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/ui"
	ledger "github.com/nhle/taskflow/internal/wallet"
)

// PaymentMethods are the payout channels the backend accepts.
var PaymentMethods = []string{"paypal", "bank_transfer", "crypto"}

// Backend is the part of the API client the wallet screen uses.
type Backend interface {
	ledger.Creator
	Profile(ctx context.Context) (*model.Profile, error)
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	ListWithdrawals(ctx context.Context) ([]model.Withdrawal, error)
}

// LoadedMsg carries the joined profile and ledger fetch.
type LoadedMsg struct {
	Profile      *model.Profile
	Transactions []model.Transaction
	Withdrawals  []model.Withdrawal
	Err          error
}

// WithdrawnMsg reports the outcome of a payout request.
type WithdrawnMsg struct {
	Withdrawal *model.Withdrawal
	Err        error
}

type withdrawBindings struct {
	amount  string
	method  string
	details string
}

// Model is the wallet screen.
type Model struct {
	backend      Backend
	keys         *keys.KeyMap
	currency     string
	now          func() time.Time
	profile      *model.Profile
	transactions []model.Transaction
	withdrawals  []model.Withdrawal
	loading      bool
	form         *huh.Form
	fb           *withdrawBindings
	width        int
	height       int
}

// New creates the wallet screen.
func New(b Backend, k *keys.KeyMap, currency string, width, height int) Model {
	return Model{
		backend:  b,
		keys:     k,
		currency: currency,
		now:      time.Now,
		width:    width,
		height:   height,
	}
}

// Init returns nil; the screen loads when shown.
func (m Model) Init() tea.Cmd { return nil }

// Capturing reports whether the payout form has keyboard focus.
func (m Model) Capturing() bool { return m.form != nil }

// Profile returns the last loaded profile.
func (m Model) Profile() *model.Profile { return m.profile }

// Load fetches the profile and ledger together. Either failure fails the
// whole load and the previous figures stay on screen.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	b := m.backend
	return func() tea.Msg {
		var (
			profile *model.Profile
			txs     []model.Transaction
			wds     []model.Withdrawal
		)
		err := ui.All(context.Background(),
			func(ctx context.Context) error {
				var err error
				profile, err = b.Profile(ctx)
				return err
			},
			func(ctx context.Context) error {
				var err error
				txs, err = b.ListTransactions(ctx)
				return err
			},
			func(ctx context.Context) error {
				var err error
				wds, err = b.ListWithdrawals(ctx)
				return err
			},
		)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		return LoadedMsg{Profile: profile, Transactions: txs, Withdrawals: wds}
	}
}

// Update handles messages for the wallet screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m, ui.ErrorToast(msg.Err)
		}
		m.profile = msg.Profile
		m.transactions = msg.Transactions
		m.withdrawals = msg.Withdrawals
		return m, nil

	case WithdrawnMsg:
		if msg.Err != nil {
			return m, ui.ErrorToast(msg.Err)
		}
		reload := m.Load()
		return m, tea.Batch(ui.InfoToast("Withdrawal request submitted"), reload)
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, ui.Back
		case key.Matches(msg, m.keys.Refresh):
			cmd := m.Load()
			return m, cmd
		case key.Matches(msg, m.keys.Withdraw):
			if err := ledger.Gate(m.profile); err != nil {
				return m, ui.ErrorToast(err)
			}
			cmd := m.openForm()
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) openForm() tea.Cmd {
	m.fb = &withdrawBindings{method: PaymentMethods[0]}
	opts := make([]huh.Option[string], len(PaymentMethods))
	for i, pm := range PaymentMethods {
		opts[i] = huh.NewOption(methodLabel(pm), pm)
	}

	m.form = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Amount").
			Description("Available: "+ledger.FormatCurrency(m.profile.Balance, m.currency)).
			Value(&m.fb.amount).
			Validate(validateAmount),
		huh.NewSelect[string]().
			Title("Payment method").
			Options(opts...).
			Value(&m.fb.method),
		huh.NewInput().
			Title("Payment details").
			Placeholder("account, email or wallet address").
			Value(&m.fb.details),
	)).WithWidth(min(max(m.width-4, 40), 100))
	return m.form.Init()
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
		m.form = nil
		amount, _ := strconv.ParseFloat(strings.TrimSpace(m.fb.amount), 64)
		req := model.WithdrawalRequest{
			Amount:         amount,
			PaymentMethod:  m.fb.method,
			PaymentDetails: m.fb.details,
		}
		b, profile := m.backend, m.profile
		return m, func() tea.Msg {
			wd, err := ledger.Withdraw(context.Background(), profile, req, b)
			return WithdrawnMsg{Withdrawal: wd, Err: err}
		}
	case huh.StateAborted:
		m.form = nil
		return m, nil
	}
	return m, cmd
}

// View renders the wallet screen.
func (m Model) View() string {
	if m.form != nil {
		title := theme.TitleStyle.Render("Request withdrawal")
		return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n" + m.form.View())
	}
	if m.profile == nil {
		if m.loading {
			return theme.HelpStyle.Render("Loading wallet...")
		}
		return theme.HelpStyle.Render("Wallet not loaded. Press r to retry.")
	}

	p := m.profile
	monthly := ledger.MonthlyEarnings(m.transactions, m.now())

	stats := []string{
		stat("Balance", ledger.FormatCurrency(p.Balance, m.currency)),
		stat("This month", ledger.FormatDecimal(monthly, m.currency)),
		stat("Pending", ledger.FormatCurrency(p.PendingEarnings, m.currency)),
		stat("Withdrawn", ledger.FormatCurrency(p.TotalWithdrawn, m.currency)),
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top, stats...)

	verification := idStatusLine(p.GovernmentIDStatus)

	var rows []string
	for _, wd := range m.withdrawals {
		rows = append(rows, fmt.Sprintf("%s  %-14s %s  %s",
			theme.HelpStyle.Render(wd.CreatedAt.Local().Format("Jan 02")),
			methodLabel(wd.PaymentMethod),
			theme.RewardStyle.Render(ledger.FormatCurrency(wd.Amount, m.currency)),
			theme.StatusStyle(string(wd.Status)).Render(string(wd.Status)),
		))
	}
	if len(rows) == 0 {
		rows = append(rows, theme.HelpStyle.Render("No withdrawals yet."))
	}
	if limit := max(m.height-10, 3); len(rows) > limit {
		rows = rows[:limit]
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		theme.TitleStyle.Render("Wallet"),
		cards,
		"",
		verification,
		"",
		theme.TitleStyle.Render("Withdrawals"),
		strings.Join(rows, "\n"),
		"",
		theme.HelpStyle.Render("W withdraw · r refresh · esc back"),
	)
}

func stat(label, value string) string {
	return theme.BorderStyle.Padding(0, 2).Render(
		theme.HelpStyle.Render(label) + "\n" + theme.RewardStyle.Render(value),
	)
}

func idStatusLine(status string) string {
	switch status {
	case model.IDStatusApproved:
		return theme.StatusStyle("approved").Render("ID verified")
	case model.IDStatusPending:
		return theme.StatusStyle("pending").Render("ID verification pending review. Withdrawals unlock once approved.")
	case model.IDStatusRejected:
		return theme.StatusStyle("rejected").Render("ID verification rejected. Submit a new document with `taskflow profile verify-id`.")
	default:
		return theme.HelpStyle.Render("Verify your government ID with `taskflow profile verify-id` to enable withdrawals.")
	}
}

func methodLabel(method string) string {
	switch method {
	case "paypal":
		return "PayPal"
	case "bank_transfer":
		return "Bank transfer"
	case "crypto":
		return "Crypto"
	default:
		return method
	}
}

func validateAmount(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("enter a positive amount")
	}
	return nil
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
