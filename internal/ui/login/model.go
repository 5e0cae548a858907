// Package login renders the sign-in and sign-up forms.
package login

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
)

// Countries offered at sign-up.
var Countries = []string{"IN", "US", "GB", "CA", "AU"}

// Authenticator signs the user in or up.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*model.AuthResult, error)
	Register(ctx context.Context, reg api.Registration) (*model.AuthResult, error)
}

// LoggedInMsg carries a successful login or registration.
type LoggedInMsg struct {
	Result *model.AuthResult
}

type failedMsg struct {
	err error
}

type bindings struct {
	register bool
	name     string
	email    string
	password string
	country  string
	referral string
}

// Model is the login screen.
type Model struct {
	auth   Authenticator
	form   *huh.Form
	fb     *bindings
	busy   bool
	errMsg string
	width  int
	height int
}

// New creates the login screen in sign-in mode.
func New(auth Authenticator, width, height int) Model {
	m := Model{auth: auth, width: width, height: height}
	m.reset(false)
	return m
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Capturing is always true: every key belongs to the form.
func (m Model) Capturing() bool { return true }

func (m *Model) reset(register bool) {
	email := ""
	if m.fb != nil {
		email = m.fb.email
	}
	m.fb = &bindings{register: register, email: email, country: Countries[0]}
	m.form = m.buildForm()
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{}
	if m.fb.register {
		fields = append(fields, huh.NewInput().Title("Name").Value(&m.fb.name).Validate(required("Name")))
	}
	fields = append(fields,
		huh.NewInput().Title("Email").Value(&m.fb.email).Validate(validateEmail),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&m.fb.password).Validate(validatePassword(m.fb.register)),
	)
	if m.fb.register {
		fields = append(fields,
			huh.NewSelect[string]().Title("Country").Options(huh.NewOptions(Countries...)...).Value(&m.fb.country),
			huh.NewInput().Title("Referral code").Description("Optional").Value(&m.fb.referral),
		)
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(min(max(m.width-4, 40), 80))
}

// Update handles messages for the login screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case failedMsg:
		m.busy = false
		m.errMsg = api.Message(msg.err)
		m.fb.password = ""
		m.form = m.buildForm()
		return m, m.form.Init()

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		if msg.String() == "ctrl+r" {
			m.errMsg = ""
			m.reset(!m.fb.register)
			return m, m.form.Init()
		}
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.busy = true
		m.errMsg = ""
		return m, m.submit()
	case huh.StateAborted:
		return m, tea.Quit
	}
	return m, cmd
}

func (m Model) submit() tea.Cmd {
	auth, fb := m.auth, *m.fb
	return func() tea.Msg {
		ctx := context.Background()
		var (
			res *model.AuthResult
			err error
		)
		if fb.register {
			res, err = auth.Register(ctx, api.Registration{
				Name:         strings.TrimSpace(fb.name),
				Email:        strings.TrimSpace(fb.email),
				Password:     fb.password,
				Country:      fb.country,
				ReferralCode: strings.TrimSpace(fb.referral),
			})
		} else {
			res, err = auth.Login(ctx, strings.TrimSpace(fb.email), fb.password)
		}
		if err != nil {
			return failedMsg{err: err}
		}
		return LoggedInMsg{Result: res}
	}
}

// View renders the login screen.
func (m Model) View() string {
	title := "Sign in to TaskFlow"
	toggle := "ctrl+r create an account"
	if m.fb.register {
		title = "Create your TaskFlow account"
		toggle = "ctrl+r sign in instead"
	}

	parts := []string{theme.TitleStyle.Render(title)}
	if m.errMsg != "" {
		parts = append(parts, theme.ErrorToastStyle.Render(m.errMsg))
	}
	if m.busy {
		parts = append(parts, theme.HelpStyle.Render("Signing in..."))
	} else {
		parts = append(parts, m.form.View())
	}
	parts = append(parts, theme.HelpStyle.Render(toggle+" · ctrl+c quit"))

	box := theme.BorderStyle.Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("enter a valid email")
	}
	return nil
}

func validatePassword(register bool) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("password is required")
		}
		if register && len(s) < 6 {
			return fmt.Errorf("password must be at least 6 characters")
		}
		return nil
	}
}
