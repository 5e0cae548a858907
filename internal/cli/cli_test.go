package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nhle/taskflow/internal/credential"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/tests/testutil"
)

// ─── Harness ─────────────────────────────────────────────

type harness struct {
	t       *testing.T
	backend *testutil.FakeBackend
	config  string
}

// newHarness points the CLI at a fake backend with a temporary config,
// database and in-memory secret store.
func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	dir := t.TempDir()

	cfg := model.DefaultAppConfig()
	cfg.API.BaseURL = backend.URL()
	cfg.API.MaxRetries = 0
	cfg.Display.CurrencySymbol = "$"
	cfg.Storage.DBPath = filepath.Join(dir, "taskflow.db")
	cfg.Logging.File = filepath.Join(dir, "taskflow.log")
	path := filepath.Join(dir, "config.yaml")
	if err := model.SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	t.Setenv(model.BaseURLEnv, "")

	secrets := credential.NewMemory()
	prev := newSecrets
	newSecrets = func() credential.Store { return secrets }
	t.Cleanup(func() { newSecrets = prev })

	return &harness{t: t, backend: backend, config: path}
}

// resetFlags restores every flag to its default so runs do not leak
// values into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", h.config}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func (h *harness) login() {
	h.t.Helper()
	h.mustRun("login", "--email", h.backend.Email, "--password", h.backend.Password)
}

// ─── Session ─────────────────────────────────────────────

func TestLoginStoresSessionAndRegistersDevice(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("login", "--email", h.backend.Email, "--password", h.backend.Password)
	if !strings.Contains(out, "Signed in as Worker") {
		t.Errorf("output = %q", out)
	}
	h.backend.Lock()
	tokens := len(h.backend.DeviceTokens)
	h.backend.Unlock()
	if tokens != 1 {
		t.Errorf("device tokens registered = %d, want 1", tokens)
	}

	// The stored session is picked up by the next invocation.
	if _, err := h.run("tasks"); err != nil {
		t.Errorf("tasks after login: %v", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "--email", h.backend.Email, "--password", "nope")
	if err == nil || !strings.Contains(err.Error(), "Invalid email or password") {
		t.Fatalf("err = %v", err)
	}
	if _, err := h.run("tasks"); err != errSignedOut {
		t.Errorf("tasks err = %v, want errSignedOut", err)
	}
}

func TestLogoutForgetsSession(t *testing.T) {
	h := newHarness(t)
	h.login()

	if out := h.mustRun("logout"); !strings.Contains(out, "Signed out") {
		t.Errorf("output = %q", out)
	}
	if _, err := h.run("wallet"); err != errSignedOut {
		t.Errorf("wallet err = %v, want errSignedOut", err)
	}
}

// ─── Tasks ───────────────────────────────────────────────

func seedTasks(b *testutil.FakeBackend) {
	b.Lock()
	defer b.Unlock()
	b.Tasks = []model.Task{
		{ID: 1, Title: "Follow page", Reward: model.MustAmount("2"), Difficulty: model.DifficultyEasy, ApprovalType: model.ApprovalAutomatic},
		{ID: 2, Title: "Write review", Reward: model.MustAmount("9"), Difficulty: model.DifficultyHard, ApprovalType: model.ApprovalManual},
		{ID: 3, Title: "Install app", Reward: model.MustAmount("5"), Difficulty: model.DifficultyMedium, ApprovalType: model.ApprovalManual},
	}
}

func TestTasksSortAndSearch(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		order  []string
		absent []string
	}{
		{
			name:  "default reward desc",
			args:  []string{"tasks"},
			order: []string{"Write review", "Install app", "Follow page"},
		},
		{
			name:  "reward asc",
			args:  []string{"tasks", "--sort", "reward", "--order", "asc"},
			order: []string{"Follow page", "Install app", "Write review"},
		},
		{
			name:   "search narrows",
			args:   []string{"tasks", "--search", "REVIEW"},
			order:  []string{"Write review"},
			absent: []string{"Follow page", "Install app"},
		},
	}

	h := newHarness(t)
	seedTasks(h.backend)
	h.login()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.run(tt.args...)
			if err != nil {
				t.Fatalf("%v: %v", tt.args, err)
			}
			last := -1
			for _, title := range tt.order {
				i := strings.Index(out, title)
				if i < 0 {
					t.Fatalf("%q missing from output:\n%s", title, out)
				}
				if i < last {
					t.Errorf("%q out of order:\n%s", title, out)
				}
				last = i
			}
			for _, title := range tt.absent {
				if strings.Contains(out, title) {
					t.Errorf("%q should be filtered out:\n%s", title, out)
				}
			}
		})
	}
}

func TestTasksRejectsUnknownSort(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run("tasks", "--sort", "popularity"); err == nil {
		t.Fatal("expected error for unknown sort field")
	}
}

func TestTasksFallsBackToCache(t *testing.T) {
	h := newHarness(t)
	seedTasks(h.backend)
	h.login()
	h.mustRun("tasks")

	h.backend.Lock()
	h.backend.Failing["GET /api/tasks"] = true
	h.backend.Unlock()

	out := h.mustRun("tasks")
	if !strings.Contains(out, "Offline") || !strings.Contains(out, "Write review") {
		t.Errorf("output = %q", out)
	}
}

// ─── Notifications ───────────────────────────────────────

func TestNotificationsListAndRead(t *testing.T) {
	h := newHarness(t)
	h.backend.Notifications = []model.Notification{
		{ID: 7, Title: "Task approved", Message: "You earned $2", CreatedAt: time.Now()},
		{ID: 8, Title: "Welcome", Message: "Hi", IsRead: true, CreatedAt: time.Now()},
	}
	h.login()

	out := h.mustRun("notifications", "list")
	if !strings.Contains(out, "Task approved") || !strings.Contains(out, "1 unread") {
		t.Errorf("list output = %q", out)
	}

	h.mustRun("notifications", "read", "7")
	if got := h.backend.Calls("PUT /api/notifications/{id}/read"); got != 1 {
		t.Errorf("mark read calls = %d, want 1", got)
	}

	h.mustRun("notifications", "read-all")
	if got := h.backend.Calls("PUT /api/notifications/read-all"); got != 1 {
		t.Errorf("read-all calls = %d, want 1", got)
	}
}

func TestNotificationsOfflineMirror(t *testing.T) {
	h := newHarness(t)
	h.backend.Notifications = []model.Notification{{ID: 3, Title: "Saved", Message: "m", CreatedAt: time.Now()}}
	h.login()
	h.mustRun("notifications")

	h.backend.Lock()
	h.backend.Failing["GET /api/notifications"] = true
	h.backend.Unlock()

	out := h.mustRun("notifications")
	if !strings.Contains(out, "Offline") || !strings.Contains(out, "Saved") {
		t.Errorf("output = %q", out)
	}
}

// ─── Wallet ──────────────────────────────────────────────

func TestWithdrawGate(t *testing.T) {
	tests := []struct {
		name     string
		idStatus string
		amount   string
		wantErr  string
		wantPost int
	}{
		{name: "unverified", idStatus: "", amount: "10", wantErr: "government ID", wantPost: 0},
		{name: "pending id", idStatus: model.IDStatusPending, amount: "10", wantErr: "government ID", wantPost: 0},
		{name: "over balance", idStatus: model.IDStatusApproved, amount: "100", wantErr: "Insufficient balance", wantPost: 0},
		{name: "NaN amount", idStatus: model.IDStatusApproved, amount: "NaN", wantErr: "valid amount", wantPost: 0},
		{name: "approved", idStatus: model.IDStatusApproved, amount: "10", wantPost: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.backend.Profile.GovernmentIDStatus = tt.idStatus
			h.login()

			out, err := h.run("wallet", "withdraw", "--amount", tt.amount, "--method", "paypal", "--details", "me@example.com")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("withdraw: %v", err)
			} else if !strings.Contains(out, "requested") {
				t.Errorf("output = %q", out)
			}
			if got := h.backend.Calls("POST /api/withdrawals"); got != tt.wantPost {
				t.Errorf("withdrawal posts = %d, want %d", got, tt.wantPost)
			}
		})
	}
}

func TestWalletBalance(t *testing.T) {
	h := newHarness(t)
	h.backend.Transactions = []model.Transaction{
		{ID: 1, Amount: model.MustAmount("4"), Type: model.TxEarning, Status: model.TxCompleted, CreatedAt: time.Now()},
	}
	h.login()

	out := h.mustRun("wallet", "balance")
	for _, want := range []string{"$26", "$4", "not submitted"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// ─── History ─────────────────────────────────────────────

func TestDisputeEligibility(t *testing.T) {
	h := newHarness(t)
	now := time.Now()
	h.backend.Transactions = []model.Transaction{
		{ID: 1, Amount: model.MustAmount("3"), Type: model.TxEarning, Status: model.TxFailed, CreatedAt: now.Add(-time.Hour)},
		{ID: 2, Amount: model.MustAmount("3"), Type: model.TxEarning, Status: model.TxCompleted, CreatedAt: now.Add(-time.Hour)},
		{ID: 3, Amount: model.MustAmount("3"), Type: model.TxEarning, Status: model.TxFailed, CreatedAt: now.Add(-48 * time.Hour)},
	}
	h.login()

	out := h.mustRun("history", "--status", "failed")
	if strings.Contains(out, "completed") || !strings.Contains(out, "disputable") {
		t.Errorf("history output = %q", out)
	}

	for _, id := range []string{"2", "3"} {
		if _, err := h.run("history", "dispute", id, "--reason", "done it"); err == nil {
			t.Errorf("dispute %s: expected error", id)
		}
	}
	h.mustRun("history", "dispute", "1", "--reason", "I completed it")

	h.backend.Lock()
	defer h.backend.Unlock()
	if len(h.backend.Disputes) != 1 || h.backend.Disputes[1] != "I completed it" {
		t.Errorf("disputes = %v", h.backend.Disputes)
	}
}

// ─── Admin ───────────────────────────────────────────────

func TestAdminRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("admin", "stats")
	if err == nil || !strings.Contains(err.Error(), "admin account") {
		t.Fatalf("err = %v", err)
	}
	if got := h.backend.Calls("GET /api/admin/stats"); got != 0 {
		t.Errorf("stats calls = %d, want 0", got)
	}
}

func TestAdminStats(t *testing.T) {
	h := newHarness(t)
	h.backend.User.IsAdmin = true
	h.backend.AdminStats = model.AdminStats{Users: 12, Tasks: 4, PendingSubmissions: 2, TotalEarnings: model.MustAmount("99")}
	h.login()

	out := h.mustRun("admin", "stats")
	for _, want := range []string{"12", "$99"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in      string
		want    model.ReviewStatus
		wantErr bool
	}{
		{"approve", model.ReviewApproved, false},
		{"REJECT", model.ReviewRejected, false},
		{"maybe", "", true},
	}
	for _, tt := range tests {
		got, err := parseDecision(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseDecision(%q) = %q, %v", tt.in, got, err)
		}
	}
}

// ─── Config ──────────────────────────────────────────────

func TestConfigSetURL(t *testing.T) {
	h := newHarness(t)

	if _, err := h.run("config", "set-url", "ftp://nope"); err == nil {
		t.Error("expected error for non-http URL")
	}
	h.mustRun("config", "set-url", "https://staging.example.com/api/")

	out := h.mustRun("config", "show")
	if !strings.Contains(out, "https://staging.example.com/api") || strings.Contains(out, "/api/\n") {
		t.Errorf("config show = %q", out)
	}
}

// ─── Helpers ─────────────────────────────────────────────

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated", 5, "trun…"},
		{"₹₹₹₹", 3, "₹₹…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
