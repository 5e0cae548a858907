// Package history lists the user's ledger and raises disputes.
package history

import (
	"context"
	"fmt"
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
	"github.com/nhle/taskflow/internal/wallet"
)

// Filters are the status filters cycled with tab. The empty status shows
// everything.
var Filters = []model.TransactionStatus{"", model.TxCompleted, model.TxPending, model.TxFailed}

// Backend is the part of the API client the history screen uses.
type Backend interface {
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
	RaiseDispute(ctx context.Context, txID int64, reason, evidence string) error
}

// LoadedMsg carries the fetched ledger.
type LoadedMsg struct {
	Transactions []model.Transaction
	Err          error
}

type disputedMsg struct {
	err error
}

type disputeBindings struct {
	txID     int64
	reason   string
	evidence string
}

// Model is the history screen.
type Model struct {
	backend  Backend
	keys     *keys.KeyMap
	currency string
	now      func() time.Time
	all      []model.Transaction
	filter   int
	cursor   int
	loading  bool
	form     *huh.Form
	fb       *disputeBindings
	width    int
	height   int
}

// New creates the history screen.
func New(b Backend, k *keys.KeyMap, currency string, width, height int) Model {
	return Model{backend: b, keys: k, currency: currency, now: time.Now, width: width, height: height}
}

// Init returns nil; the screen loads when shown.
func (m Model) Init() tea.Cmd { return nil }

// Capturing reports whether the dispute form has keyboard focus.
func (m Model) Capturing() bool { return m.form != nil }

// Load fetches the ledger.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	b := m.backend
	return func() tea.Msg {
		txs, err := b.ListTransactions(context.Background())
		return LoadedMsg{Transactions: txs, Err: err}
	}
}

// SetFilter selects a status filter by value.
func (m *Model) SetFilter(status model.TransactionStatus) {
	for i, f := range Filters {
		if f == status {
			m.filter = i
			m.cursor = 0
			return
		}
	}
}

// Visible returns the rows matching the active filter.
func (m Model) Visible() []model.Transaction {
	return wallet.FilterByStatus(m.all, Filters[m.filter])
}

// Update handles messages for the history screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m, ui.ErrorToast(msg.Err)
		}
		m.all = msg.Transactions
		if m.cursor >= len(m.Visible()) {
			m.cursor = 0
		}
		return m, nil

	case disputedMsg:
		if msg.err != nil {
			return m, ui.ErrorToast(msg.err)
		}
		return m, ui.InfoToast("Dispute submitted. We will review it shortly.")
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	visible := m.Visible()
	switch {
	case key.Matches(k, m.keys.Back):
		return m, ui.Back
	case key.Matches(k, m.keys.Refresh):
		cmd := m.Load()
		return m, cmd
	case key.Matches(k, m.keys.Tab):
		m.filter = (m.filter + 1) % len(Filters)
		m.cursor = 0
	case key.Matches(k, m.keys.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case key.Matches(k, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(k, m.keys.Dispute):
		if len(visible) == 0 {
			return m, nil
		}
		tx := visible[m.cursor]
		if !wallet.DisputeEligible(tx, m.now()) {
			return m, ui.ErrorText("Only failed earnings from the last 24 hours can be disputed")
		}
		cmd := m.openForm(tx)
		return m, cmd
	}
	return m, nil
}

func (m *Model) openForm(tx model.Transaction) tea.Cmd {
	m.fb = &disputeBindings{txID: tx.ID}
	m.form = huh.NewForm(huh.NewGroup(
		huh.NewText().
			Title("Why should this be reconsidered?").
			Value(&m.fb.reason).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("reason is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Evidence link").
			Description("Optional").
			Value(&m.fb.evidence),
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
		b, fb := m.backend, *m.fb
		return m, func() tea.Msg {
			return disputedMsg{err: b.RaiseDispute(context.Background(), fb.txID, fb.reason, fb.evidence)}
		}
	case huh.StateAborted:
		m.form = nil
		return m, nil
	}
	return m, cmd
}

// View renders the history screen.
func (m Model) View() string {
	if m.form != nil {
		title := theme.TitleStyle.Render("Dispute transaction")
		return lipgloss.NewStyle().Padding(1, 2).Render(title + "\n" + m.form.View())
	}

	names := make([]string, len(Filters))
	for i, f := range Filters {
		if f == "" {
			names[i] = "all"
			continue
		}
		names[i] = string(f)
	}
	header := lipgloss.JoinVertical(lipgloss.Left,
		theme.TitleStyle.Render("History"),
		ui.RenderTabs(names, m.filter),
		"",
	)

	visible := m.Visible()
	if len(visible) == 0 {
		msg := "No transactions."
		if m.loading {
			msg = "Loading..."
		}
		return header + "\n" + theme.HelpStyle.Render(msg)
	}

	now := m.now()
	perPage := max(m.height-6, 1)
	start := max(m.cursor-perPage+1, 0)
	end := min(start+perPage, len(visible))

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		tx := visible[i]
		flag := " "
		if wallet.DisputeEligible(tx, now) {
			flag = theme.StatusStyle("failed").Render("!")
		}
		line := fmt.Sprintf("%s %s  %-28s %8s  %s",
			flag,
			tx.CreatedAt.Local().Format("Jan 02 15:04"),
			truncate(tx.Label(), 28),
			wallet.FormatCurrency(tx.Amount, m.currency),
			theme.StatusStyle(string(tx.Status)).Render(string(tx.Status)),
		)
		if i == m.cursor {
			line = theme.SelectedItemStyle.Render(line)
		} else {
			line = theme.ListItemStyle.Render(line)
		}
		rows = append(rows, line)
	}

	hint := theme.HelpStyle.Render("tab filter · d dispute (!) · r refresh · esc back")
	return header + "\n" + strings.Join(rows, "\n") + "\n\n" + hint
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
