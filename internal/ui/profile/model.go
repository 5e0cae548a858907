// Package profile is the account screen: profile details, referral
// earnings, the leaderboard, and the forms that edit the profile, change
// the password and submit a government ID for verification.
package profile

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/ui"
	"github.com/nhle/taskflow/internal/ui/login"
	ledger "github.com/nhle/taskflow/internal/wallet"
)

// Mode is the sub-screen the account view is showing.
type Mode int

const (
	ModeOverview Mode = iota
	ModeFormProfile
	ModeFormPassword
	ModeFormID
	ModeUploading
	ModeUploadResult
)

// Backend is the part of the API client the account screen uses.
type Backend interface {
	Profile(ctx context.Context) (*model.Profile, error)
	UpdateProfile(ctx context.Context, u model.ProfileUpdate) (*model.Profile, error)
	ChangePassword(ctx context.Context, current, next string) error
	SubmitGovernmentID(ctx context.Context, idURL string) error
	ReferralStats(ctx context.Context) (*model.ReferralStats, error)
	Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
}

// Uploader stores a local file and returns its public URL.
type Uploader interface {
	UploadFile(ctx context.Context, path string) (string, error)
}

// LoadedMsg carries the joined profile, referral and leaderboard fetch.
type LoadedMsg struct {
	Profile     *model.Profile
	Referrals   *model.ReferralStats
	Leaderboard []model.LeaderboardEntry
	Err         error
}

// UpdatedMsg reports a saved profile. The root model refreshes the
// session copy from it.
type UpdatedMsg struct {
	Profile *model.Profile
}

type savedMsg struct {
	profile *model.Profile
	err     error
}

type passwordChangedMsg struct{ err error }

// IDSubmittedMsg reports the outcome of an ID upload and submission.
type IDSubmittedMsg struct {
	URL string
	Err error
}

// leaderboardRows is how many leaderboard entries the overview lists.
const leaderboardRows = 5

type profileBindings struct {
	name     string
	country  string
	bio      string
	timezone string
	emails   bool
}

type passwordBindings struct {
	current string
	next    string
	confirm string
}

type idBindings struct {
	path    string
	confirm bool
}

// Model is the account screen.
type Model struct {
	backend     Backend
	uploader    Uploader
	keys        *keys.KeyMap
	currency    string
	mode        Mode
	profile     *model.Profile
	referrals   *model.ReferralStats
	leaderboard []model.LeaderboardEntry
	loading     bool
	form        *huh.Form
	pb          *profileBindings
	pw          *passwordBindings
	idb         *idBindings
	spinner     spinner.Model
	uploadErr   error
	statusMsg   string
	width       int
	height      int
}

// New creates the account screen.
func New(b Backend, up Uploader, k *keys.KeyMap, currency string, width, height int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		backend:  b,
		uploader: up,
		keys:     k,
		currency: currency,
		spinner:  s,
		width:    width,
		height:   height,
	}
}

// Init returns nil; the screen loads when shown.
func (m Model) Init() tea.Cmd { return nil }

// Mode returns the active sub-screen.
func (m Model) Mode() Mode { return m.mode }

// Profile returns the last loaded profile.
func (m Model) Profile() *model.Profile { return m.profile }

// Capturing reports whether a form or the upload has keyboard focus.
func (m Model) Capturing() bool { return m.mode != ModeOverview }

// Load fetches the profile, referral stats and leaderboard together.
// Either failure fails the whole load and the previous figures stay.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	b := m.backend
	return func() tea.Msg {
		var (
			profile *model.Profile
			refs    *model.ReferralStats
			board   []model.LeaderboardEntry
		)
		err := ui.All(context.Background(),
			func(ctx context.Context) error {
				var err error
				profile, err = b.Profile(ctx)
				return err
			},
			func(ctx context.Context) error {
				var err error
				refs, err = b.ReferralStats(ctx)
				return err
			},
			func(ctx context.Context) error {
				var err error
				board, err = b.Leaderboard(ctx)
				return err
			},
		)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		return LoadedMsg{Profile: profile, Referrals: refs, Leaderboard: board}
	}
}

// Update handles messages and dispatches based on the current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m, ui.ErrorToast(msg.Err)
		}
		m.profile = msg.Profile
		m.referrals = msg.Referrals
		m.leaderboard = msg.Leaderboard
		return m, nil

	case savedMsg:
		m.mode = ModeOverview
		if msg.err != nil {
			return m, ui.ErrorToast(msg.err)
		}
		m.profile = msg.profile
		m.statusMsg = "Profile saved"
		p := msg.profile
		return m, tea.Batch(
			ui.InfoToast("Profile updated"),
			func() tea.Msg { return UpdatedMsg{Profile: p} },
		)

	case passwordChangedMsg:
		m.mode = ModeOverview
		if msg.err != nil {
			return m, ui.ErrorToast(msg.err)
		}
		m.statusMsg = "Password changed"
		return m, ui.InfoToast("Password changed")

	case IDSubmittedMsg:
		// Cancelled uploads finish in the background; drop their result.
		if m.mode != ModeUploading {
			return m, nil
		}
		m.uploadErr = msg.Err
		m.mode = ModeUploadResult
		if msg.Err != nil {
			return m, nil
		}
		if m.profile != nil {
			p := *m.profile
			p.GovernmentIDStatus = model.IDStatusPending
			m.profile = &p
		}
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeUploading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeOverview:
		return m.handleOverviewKeys(msg)
	case ModeFormProfile, ModeFormPassword, ModeFormID:
		return m.updateForm(msg)
	case ModeUploading:
		if msg.String() == "esc" {
			m.mode = ModeOverview
			m.statusMsg = "Upload cancelled"
		}
		return m, nil
	case ModeUploadResult:
		return m.handleUploadResultKeys(msg)
	}
	return m, nil
}

func (m Model) handleOverviewKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, ui.Back
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.Load()
		return m, cmd
	case msg.String() == "e":
		if m.profile == nil {
			return m, nil
		}
		cmd := m.openProfileForm()
		return m, cmd
	case msg.String() == "P":
		cmd := m.openPasswordForm()
		return m, cmd
	case msg.String() == "i":
		if m.profile == nil {
			return m, nil
		}
		if m.profile.GovernmentIDStatus == model.IDStatusApproved {
			return m, ui.InfoToast("Your ID is already verified")
		}
		if m.profile.GovernmentIDStatus == model.IDStatusPending {
			return m, ui.ErrorText("Your ID is already under review")
		}
		cmd := m.openIDForm()
		return m, cmd
	}
	return m, nil
}

func (m Model) handleUploadResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.mode = ModeOverview
		m.uploadErr = nil
		return m, nil
	case "r":
		if m.uploadErr != nil && m.idb != nil {
			m.uploadErr = nil
			cmd := m.startUpload(m.idb.path)
			return m, cmd
		}
	}
	return m, nil
}

// --- Forms ---

func (m *Model) openProfileForm() tea.Cmd {
	p := m.profile
	m.pb = &profileBindings{
		name:     p.Name,
		country:  p.Country,
		bio:      p.Bio,
		timezone: p.Timezone,
		emails:   p.EmailNotifications,
	}
	countries := login.Countries
	if p.Country != "" && !slices.Contains(countries, p.Country) {
		countries = append([]string{p.Country}, countries...)
	}
	if m.pb.country == "" {
		m.pb.country = countries[0]
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.pb.name).
				Validate(validateRequired("Name")),
			huh.NewSelect[string]().
				Title("Country").
				Options(huh.NewOptions(countries...)...).
				Value(&m.pb.country),
			huh.NewText().
				Title("Bio").
				CharLimit(500).
				Value(&m.pb.bio),
			huh.NewInput().
				Title("Timezone").
				Placeholder("Asia/Kolkata").
				Value(&m.pb.timezone),
			huh.NewConfirm().
				Title("Email notifications").
				Affirmative("On").
				Negative("Off").
				Value(&m.pb.emails),
		),
	).WithWidth(m.formWidth())
	m.mode = ModeFormProfile
	return m.form.Init()
}

func (m *Model) openPasswordForm() tea.Cmd {
	pw := &passwordBindings{}
	m.pw = pw
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Current password").
				EchoMode(huh.EchoModePassword).
				Value(&pw.current).
				Validate(validateRequired("Current password")),
			huh.NewInput().
				Title("New password").
				EchoMode(huh.EchoModePassword).
				Value(&pw.next).
				Validate(validatePassword),
			huh.NewInput().
				Title("Confirm new password").
				EchoMode(huh.EchoModePassword).
				Value(&pw.confirm).
				Validate(func(s string) error {
					if s != pw.next {
						return fmt.Errorf("passwords do not match")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth())
	m.mode = ModeFormPassword
	return m.form.Init()
}

func (m *Model) openIDForm() tea.Cmd {
	m.idb = &idBindings{}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("ID image").
				Description("Path to a photo or scan of your government ID").
				Placeholder("~/Documents/passport.jpg").
				Value(&m.idb.path).
				Validate(validateImagePath),
			huh.NewConfirm().
				Title("Submit this document for review?").
				Description("Withdrawals unlock once an admin approves it.").
				Affirmative("Submit").
				Negative("Cancel").
				Value(&m.idb.confirm),
		),
	).WithWidth(m.formWidth())
	m.mode = ModeFormID
	return m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = ModeOverview
		return m, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.form = nil
		m.mode = ModeOverview
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		return m.submitForm()
	case huh.StateAborted:
		m.form = nil
		m.mode = ModeOverview
		return m, nil
	}
	return m, cmd
}

func (m Model) submitForm() (Model, tea.Cmd) {
	b := m.backend
	switch m.mode {
	case ModeFormProfile:
		u := m.profileUpdate()
		return m, func() tea.Msg {
			p, err := b.UpdateProfile(context.Background(), u)
			return savedMsg{profile: p, err: err}
		}
	case ModeFormPassword:
		current, next := m.pw.current, m.pw.next
		return m, func() tea.Msg {
			return passwordChangedMsg{err: b.ChangePassword(context.Background(), current, next)}
		}
	case ModeFormID:
		if !m.idb.confirm {
			m.mode = ModeOverview
			return m, nil
		}
		cmd := m.startUpload(m.idb.path)
		return m, cmd
	}
	m.mode = ModeOverview
	return m, nil
}

// profileUpdate sends only the fields that differ from the loaded profile.
func (m Model) profileUpdate() model.ProfileUpdate {
	var u model.ProfileUpdate
	p, fb := m.profile, m.pb
	if name := strings.TrimSpace(fb.name); name != p.Name {
		u.Name = &name
	}
	if fb.country != p.Country {
		u.Country = &fb.country
	}
	if fb.bio != p.Bio {
		u.Bio = &fb.bio
	}
	if tz := strings.TrimSpace(fb.timezone); tz != p.Timezone {
		u.Timezone = &tz
	}
	if fb.emails != p.EmailNotifications {
		u.EmailNotifications = &fb.emails
	}
	return u
}

// startUpload stores the ID image then records its URL for review.
func (m *Model) startUpload(path string) tea.Cmd {
	m.mode = ModeUploading
	b, up := m.backend, m.uploader
	path = expandHome(strings.TrimSpace(path))
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			if up == nil {
				return IDSubmittedMsg{Err: fmt.Errorf("uploads are not configured")}
			}
			ctx := context.Background()
			url, err := up.UploadFile(ctx, path)
			if err != nil {
				return IDSubmittedMsg{Err: err}
			}
			if err := b.SubmitGovernmentID(ctx, url); err != nil {
				return IDSubmittedMsg{URL: url, Err: err}
			}
			return IDSubmittedMsg{URL: url}
		},
	)
}

// --- View ---

// View renders the account screen based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeFormProfile:
		return m.viewForm("Edit profile")
	case ModeFormPassword:
		return m.viewForm("Change password")
	case ModeFormID:
		return m.viewForm("Verify government ID")
	case ModeUploading:
		return m.viewUploading()
	case ModeUploadResult:
		return m.viewUploadResult()
	default:
		return m.viewOverview()
	}
}

func (m Model) viewOverview() string {
	if m.profile == nil {
		if m.loading {
			return theme.HelpStyle.Render("Loading profile...")
		}
		return theme.HelpStyle.Render("Profile not loaded. Press r to retry.")
	}
	p := m.profile

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(p.Name))
	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render(p.Email))
	b.WriteString("\n\n")

	fields := [][2]string{
		{"Country", orDash(p.Country)},
		{"Timezone", orDash(p.Timezone)},
		{"Tasks completed", fmt.Sprintf("%d", p.TasksCompleted)},
		{"Success rate", p.SuccessRate.String() + "%"},
		{"ID verification", idStatusLabel(p.GovernmentIDStatus)},
	}
	for _, f := range fields {
		fmt.Fprintf(&b, "%s %s\n", theme.HelpStyle.Render(fmt.Sprintf("%-16s", f[0])), f[1])
	}
	if p.Bio != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(max(m.width-4, 20)).Render(p.Bio))
		b.WriteString("\n")
	}

	if r := m.referrals; r != nil {
		b.WriteString("\n")
		b.WriteString(theme.TitleStyle.Render("Referrals"))
		b.WriteString("\n")
		fmt.Fprintf(&b, "Code %s · %d referred · earned %s\n",
			theme.RewardStyle.Render(r.ReferralCode),
			r.TotalReferredUsers,
			ledger.FormatCurrency(r.TotalReferralEarnings, m.currency),
		)
		if r.ReferralLink != "" {
			b.WriteString(theme.HelpStyle.Render(r.ReferralLink))
			b.WriteString("\n")
		}
	}

	if len(m.leaderboard) > 0 {
		b.WriteString("\n")
		b.WriteString(theme.TitleStyle.Render("Leaderboard"))
		b.WriteString("\n")
		for i, e := range m.leaderboard[:min(len(m.leaderboard), leaderboardRows)] {
			line := fmt.Sprintf("%d. %-20s %s  %d tasks", i+1, e.Name,
				ledger.FormatCurrency(e.Balance, m.currency), e.TasksCompleted)
			if e.Name == p.Name {
				b.WriteString(theme.SelectedItemStyle.Render(line))
			} else {
				b.WriteString(theme.ListItemStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("e edit | P password | i verify ID | r refresh | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(b.String())
}

func (m Model) viewForm(title string) string {
	if m.form == nil {
		return ""
	}
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Render(theme.TitleStyle.Render(title) + "\n" + m.form.View())
}

func (m Model) viewUploading() string {
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(fmt.Sprintf(
		"%s Uploading ID document...\n\nPress esc to cancel.",
		m.spinner.View(),
	))
}

func (m Model) viewUploadResult() string {
	var content string
	if m.uploadErr != nil {
		errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
		content = errStyle.Render("Upload failed") + "\n\n" +
			api.Message(m.uploadErr) + "\n\n" +
			theme.HelpStyle.Render("r retry | enter/esc back")
	} else {
		okStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
		content = okStyle.Render("ID submitted") + "\n\n" +
			"An admin will review your document shortly.\n\n" +
			theme.HelpStyle.Render("enter/esc back")
	}
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Render(content)
}

// --- Helpers ---

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func idStatusLabel(status string) string {
	switch status {
	case model.IDStatusApproved:
		return theme.StatusStyle("approved").Render("verified")
	case model.IDStatusPending:
		return theme.StatusStyle("pending").Render("pending review")
	case model.IDStatusRejected:
		return theme.StatusStyle("rejected").Render("rejected, press i to resubmit")
	default:
		return theme.HelpStyle.Render("not submitted, press i to verify")
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return home + "/" + rest
		}
	}
	return path
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePassword(s string) error {
	if len(s) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}

var imageExts = []string{".jpg", ".jpeg", ".png", ".webp", ".pdf"}

func validateImagePath(s string) error {
	path := expandHome(strings.TrimSpace(s))
	if path == "" {
		return fmt.Errorf("file path is required")
	}
	lower := strings.ToLower(path)
	if !slices.ContainsFunc(imageExts, func(ext string) bool { return strings.HasSuffix(lower, ext) }) {
		return fmt.Errorf("use a JPG, PNG, WEBP or PDF file")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s", s)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", s)
	}
	return nil
}
