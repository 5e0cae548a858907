package model

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

// ─── Amounts ─────────────────────────────────────────────

func TestAmountDecoding(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		want  string
	}{
		{`12.5`, true, "12.50"},
		{`"7"`, true, "7.00"},
		{`" 3.10 "`, true, "3.10"},
		{`"abc"`, false, "NaN"},
		{`null`, false, "NaN"},
	}
	for _, tt := range tests {
		var a Amount
		if err := json.Unmarshal([]byte(tt.in), &a); err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if a.Valid != tt.valid || a.String() != tt.want {
			t.Errorf("%s: got (%v, %s), want (%v, %s)", tt.in, a.Valid, a, tt.valid, tt.want)
		}
	}
}

// ─── Field spellings ─────────────────────────────────────

func TestTaskSnakeAndCamel(t *testing.T) {
	snake := `{"id":1,"title":"A","reward":"2.5","time_estimate":"5 min","approval_type":"manual",
		"time_in_seconds":"120","created_at":"2024-07-01T10:00:00+00:00","hourly_limit":2,"is_active":1,
		"proof_requirements":[{"type":"screenshot","description":"shot"}]}`
	camel := `{"id":"1","title":"A","reward":2.5,"timeEstimate":"5 min","approvalType":"manual",
		"timeInSeconds":120,"createdAt":"2024-07-01T10:00:00Z","hourlyLimit":"2","isActive":true,
		"proofRequirements":[{"type":"screenshot","description":"shot"}]}`

	var a, b Task
	if err := json.Unmarshal([]byte(snake), &a); err != nil {
		t.Fatalf("snake: %v", err)
	}
	if err := json.Unmarshal([]byte(camel), &b); err != nil {
		t.Fatalf("camel: %v", err)
	}
	for _, task := range []Task{a, b} {
		if task.ID != 1 || task.TimeEstimate != "5 min" || task.ApprovalType != ApprovalManual ||
			task.TimeInSeconds != 120 || task.HourlyLimit != 2 || !task.IsActive ||
			len(task.ProofRequirements) != 1 || task.Reward.String() != "2.50" {
			t.Errorf("task = %+v", task)
		}
		if !task.CreatedAt.Equal(time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)) {
			t.Errorf("created_at = %v", task.CreatedAt)
		}
	}
}

func TestTaskBadTimestamp(t *testing.T) {
	var tasks []Task
	body := `[{"id":4,"created_at":"yesterday","reward":"2"},{"id":5,"createdAt":"2024-07-01T10:00:00Z","reward":3}]`
	if err := json.Unmarshal([]byte(body), &tasks); err != nil {
		t.Fatalf("one bad timestamp failed the list: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(tasks))
	}
	if !tasks[0].CreatedAt.IsZero() || tasks[0].Reward.String() != "2.00" {
		t.Errorf("bad row = %+v, want zero time and its other fields", tasks[0])
	}
	if tasks[1].CreatedAt.IsZero() {
		t.Error("good row lost its timestamp")
	}
}

func TestBadTimestampDegradesPerRow(t *testing.T) {
	var txs []Transaction
	if err := json.Unmarshal([]byte(`[{"id":1,"created_at":"soon","amount":1},{"id":2,"created_at":"2024-07-01","amount":2}]`), &txs); err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != 2 || !txs[0].CreatedAt.IsZero() {
		t.Errorf("txs = %+v", txs)
	}

	var ns []Notification
	if err := json.Unmarshal([]byte(`[{"id":1,"createdAt":"??","title":"x"}]`), &ns); err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if len(ns) != 1 || !ns[0].CreatedAt.IsZero() {
		t.Errorf("notifications = %+v", ns)
	}
}

func TestParseTimestampZones(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-07-01T10:00:00Z", time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-07-01T10:00:00.000Z", time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-07-01T10:00:00+05:30", time.Date(2024, 7, 1, 4, 30, 0, 0, time.UTC)},
		{"2024-07-01 10:00:00", time.Date(2024, 7, 1, 10, 0, 0, 0, time.Local)},
		{"2024-07-01", time.Date(2024, 7, 1, 0, 0, 0, 0, time.Local)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if err != nil {
				t.Fatalf("ParseTimestamp: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}

func TestTransactionNestedTask(t *testing.T) {
	var tx Transaction
	in := `{"id":3,"userId":"9","taskId":12,"amount":"1.5","type":"earning","status":"failed",
		"createdAt":"2024-07-01T10:00:00Z","task":{"title":"Review app"}}`
	if err := json.Unmarshal([]byte(in), &tx); err != nil {
		t.Fatal(err)
	}
	if tx.UserID != 9 || tx.TaskID == nil || *tx.TaskID != 12 || tx.Label() != "Review app" {
		t.Errorf("tx = %+v", tx)
	}

	var bare Transaction
	_ = json.Unmarshal([]byte(`{"id":4,"amount":5,"type":"withdrawal","status":"pending"}`), &bare)
	if bare.TaskID != nil || bare.Label() != "Withdrawal" {
		t.Errorf("bare = %+v", bare)
	}
}

func TestNotificationReadFlag(t *testing.T) {
	var list []Notification
	in := `[{"id":1,"is_read":1,"created_at":"2024-07-01T10:00:00Z"},{"id":2,"isRead":false},{"id":3}]`
	if err := json.Unmarshal([]byte(in), &list); err != nil {
		t.Fatal(err)
	}
	if !list[0].IsRead || list[1].IsRead || list[2].IsRead || UnreadCount(list) != 2 {
		t.Errorf("list = %+v", list)
	}
}

func TestProfileVerificationStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"id":1,"governmentIdStatus":"approved"}`, IDStatusApproved},
		{`{"id":1,"government_id_status":"pending"}`, IDStatusPending},
		{`{"id":1}`, ""},
	}
	for _, tt := range tests {
		var p Profile
		if err := json.Unmarshal([]byte(tt.in), &p); err != nil {
			t.Fatal(err)
		}
		if p.GovernmentIDStatus != tt.want {
			t.Errorf("%s: status = %q, want %q", tt.in, p.GovernmentIDStatus, tt.want)
		}
	}
}

func TestWithdrawalDefaults(t *testing.T) {
	var wd Withdrawal
	in := `{"id":1,"amount":"10","paymentMethod":"upi","user":{"name":"Asha","email":"a@example.com"}}`
	if err := json.Unmarshal([]byte(in), &wd); err != nil {
		t.Fatal(err)
	}
	if wd.Status != ReviewPending || wd.UserName != "Asha" || wd.PaymentMethod != "upi" {
		t.Errorf("withdrawal = %+v", wd)
	}
}

func TestNewTargetedNotification(t *testing.T) {
	n := NewTargetedNotification([]int64{1, 2}, "Hi", "Body")
	if n.Data.Message != "Body" || n.Notification.Body != "Body" || n.Notification.Badge != 1 || n.Notification.Sound != "default" {
		t.Errorf("n = %+v", n)
	}
}

// ─── Config ──────────────────────────────────────────────

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv(BaseURLEnv, "")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.BaseURL != DefaultBaseURL || cfg.Display.PollIntervalSec != 60 || cfg.Display.CurrencySymbol != "₹" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestConfigRoundTripAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultAppConfig()
	cfg.API.BaseURL = "http://localhost:3000/api"
	cfg.Display.CurrencySymbol = "$"
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	t.Setenv(BaseURLEnv, "")
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.API.BaseURL != "http://localhost:3000/api" || got.Display.CurrencySymbol != "$" {
		t.Errorf("got = %+v", got)
	}

	t.Setenv(BaseURLEnv, "https://staging.example.com/api/")
	got, _ = LoadConfig(path)
	if got.API.BaseURL != "https://staging.example.com/api" {
		t.Errorf("env override = %q", got.API.BaseURL)
	}
}
