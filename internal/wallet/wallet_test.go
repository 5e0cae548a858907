package wallet

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/model"
)

// ─── Monthly earnings ────────────────────────────────────

func TestMonthlyEarnings(t *testing.T) {
	now := time.Date(2024, 7, 15, 12, 0, 0, 0, time.Local)
	txs := []model.Transaction{
		{Type: model.TxEarning, Status: model.TxCompleted, Amount: model.MustAmount("10"), CreatedAt: now.AddDate(0, 0, -3)},
		{Type: model.TxEarning, Status: model.TxPending, Amount: model.MustAmount("5"), CreatedAt: now.AddDate(0, 0, -2)},
		{Type: model.TxEarning, Status: model.TxCompleted, Amount: model.MustAmount("100"), CreatedAt: now.AddDate(0, -1, 0)},
	}
	if got := MonthlyEarnings(txs, now); got.String() != "10" {
		t.Errorf("MonthlyEarnings = %s, want 10", got)
	}
}

func TestMonthlyEarningsBoundary(t *testing.T) {
	now := time.Date(2024, 7, 15, 12, 0, 0, 0, time.Local)
	first := time.Date(2024, 7, 1, 0, 0, 0, 0, time.Local)
	txs := []model.Transaction{
		{Type: model.TxEarning, Status: model.TxCompleted, Amount: model.MustAmount("2.5"), CreatedAt: first},
		{Type: model.TxEarning, Status: model.TxCompleted, Amount: model.MustAmount("7"), CreatedAt: first.Add(-time.Second)},
		{Type: model.TxReferralBonus, Status: model.TxCompleted, Amount: model.MustAmount("3"), CreatedAt: now},
		{Type: model.TxEarning, Status: model.TxCompleted, Amount: model.ParseAmount("oops"), CreatedAt: now},
	}
	if got := MonthlyEarnings(txs, now); got.String() != "2.5" {
		t.Errorf("MonthlyEarnings = %s, want 2.5", got)
	}
}

// ─── Dispute window ──────────────────────────────────────

func TestDisputeEligible(t *testing.T) {
	now := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		tx   model.Transaction
		want bool
	}{
		{"failed 23h59m ago", model.Transaction{Type: model.TxEarning, Status: model.TxFailed, CreatedAt: now.Add(-23*time.Hour - 59*time.Minute)}, true},
		{"failed exactly 24h ago", model.Transaction{Type: model.TxEarning, Status: model.TxFailed, CreatedAt: now.Add(-24 * time.Hour)}, true},
		{"failed 24h01m ago", model.Transaction{Type: model.TxEarning, Status: model.TxFailed, CreatedAt: now.Add(-24*time.Hour - time.Minute)}, false},
		{"completed earning", model.Transaction{Type: model.TxEarning, Status: model.TxCompleted, CreatedAt: now}, false},
		{"failed withdrawal", model.Transaction{Type: model.TxWithdrawal, Status: model.TxFailed, CreatedAt: now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisputeEligible(tt.tx, now); got != tt.want {
				t.Errorf("DisputeEligible = %v, want %v", got, tt.want)
			}
		})
	}
}

// ─── Withdrawal gate ─────────────────────────────────────

type recordingCreator struct {
	calls int
}

func (r *recordingCreator) CreateWithdrawal(_ context.Context, req model.WithdrawalRequest) (*model.Withdrawal, error) {
	r.calls++
	return &model.Withdrawal{ID: 9, Amount: model.NewAmount(req.Amount), Status: model.ReviewPending}, nil
}

func validRequest() model.WithdrawalRequest {
	return model.WithdrawalRequest{Amount: 20, PaymentMethod: "upi", PaymentDetails: "me@bank"}
}

func TestWithdrawBlockedBeforeNetwork(t *testing.T) {
	tests := []struct {
		name    string
		profile *model.Profile
	}{
		{"profile not loaded", nil},
		{"status missing", &model.Profile{Balance: model.MustAmount("100")}},
		{"pending", &model.Profile{Balance: model.MustAmount("100"), GovernmentIDStatus: model.IDStatusPending}},
		{"rejected", &model.Profile{Balance: model.MustAmount("100"), GovernmentIDStatus: model.IDStatusRejected}},
		{"unknown value", &model.Profile{Balance: model.MustAmount("100"), GovernmentIDStatus: "Approved"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &recordingCreator{}
			_, err := Withdraw(context.Background(), tt.profile, validRequest(), creator)
			if !errors.Is(err, ErrIDNotVerified) {
				t.Fatalf("err = %v, want ErrIDNotVerified", err)
			}
			if creator.calls != 0 {
				t.Errorf("creator called %d times", creator.calls)
			}
		})
	}
}

func TestWithdrawValidation(t *testing.T) {
	profile := &model.Profile{Balance: model.MustAmount("50"), GovernmentIDStatus: model.IDStatusApproved}
	tests := []struct {
		name  string
		req   model.WithdrawalRequest
		field string
	}{
		{"zero amount", model.WithdrawalRequest{Amount: 0, PaymentMethod: "upi", PaymentDetails: "x"}, "amount"},
		{"NaN amount", model.WithdrawalRequest{Amount: math.NaN(), PaymentMethod: "upi", PaymentDetails: "x"}, "amount"},
		{"infinite amount", model.WithdrawalRequest{Amount: math.Inf(1), PaymentMethod: "upi", PaymentDetails: "x"}, "amount"},
		{"over balance", model.WithdrawalRequest{Amount: 50.01, PaymentMethod: "upi", PaymentDetails: "x"}, "amount"},
		{"no method", model.WithdrawalRequest{Amount: 5, PaymentDetails: "x"}, "payment_method"},
		{"blank details", model.WithdrawalRequest{Amount: 5, PaymentMethod: "upi", PaymentDetails: "  "}, "payment_details"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &recordingCreator{}
			_, err := Withdraw(context.Background(), profile, tt.req, creator)
			var verr *api.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("err = %v, want validation error on %s", err, tt.field)
			}
			if creator.calls != 0 {
				t.Errorf("creator called %d times", creator.calls)
			}
		})
	}
}

func TestWithdrawApproved(t *testing.T) {
	profile := &model.Profile{Balance: model.MustAmount("50"), GovernmentIDStatus: model.IDStatusApproved}
	creator := &recordingCreator{}
	req := validRequest()
	req.Amount = 50
	wd, err := Withdraw(context.Background(), profile, req, creator)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if creator.calls != 1 || wd.ID != 9 {
		t.Errorf("calls = %d, id = %d", creator.calls, wd.ID)
	}
}

// ─── Formatting ──────────────────────────────────────────

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount model.Amount
		symbol string
		want   string
	}{
		{model.MustAmount("1.5"), "₹", "₹126"},
		{model.MustAmount("0.01"), "₹", "₹1"},
		{model.MustAmount("2.5"), "$", "$3"},
		{model.MustAmount("2.49"), "$", "$2"},
		{model.ParseAmount("abc"), "$", "$NaN"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.amount, tt.symbol); got != tt.want {
			t.Errorf("FormatCurrency(%s, %q) = %q, want %q", tt.amount, tt.symbol, got, tt.want)
		}
	}
}

func TestFilterByStatus(t *testing.T) {
	txs := []model.Transaction{
		{ID: 1, Status: model.TxCompleted},
		{ID: 2, Status: model.TxFailed},
		{ID: 3, Status: model.TxCompleted},
	}
	if got := FilterByStatus(txs, ""); len(got) != 3 {
		t.Errorf("empty status kept %d", len(got))
	}
	got := FilterByStatus(txs, model.TxCompleted)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("got %+v", got)
	}
}
