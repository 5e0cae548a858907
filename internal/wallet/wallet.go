// Package wallet derives balances and eligibility from the user's ledger
// and guards payout requests before they reach the backend.
package wallet

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/model"
)

// DisputeWindow is how long a failed earning stays disputable.
const DisputeWindow = 24 * time.Hour

// RupeeRate converts backend amounts for display when the rupee symbol is
// configured.
const RupeeRate = 84

// ErrIDNotVerified blocks payouts until the government ID is approved.
var ErrIDNotVerified = errors.New("government ID verification required before withdrawing")

// MonthlyEarnings sums completed earnings created since the first day of
// now's month, in now's location.
func MonthlyEarnings(txs []model.Transaction, now time.Time) decimal.Decimal {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type != model.TxEarning || tx.Status != model.TxCompleted || !tx.Amount.Valid {
			continue
		}
		if tx.CreatedAt.Before(start) {
			continue
		}
		total = total.Add(tx.Amount.Value)
	}
	return total
}

// DisputeEligible reports whether tx is a failed earning created no more
// than DisputeWindow before now.
func DisputeEligible(tx model.Transaction, now time.Time) bool {
	if tx.Type != model.TxEarning || tx.Status != model.TxFailed {
		return false
	}
	return now.Sub(tx.CreatedAt) <= DisputeWindow
}

// Gate fails closed: a nil profile or any status other than approved
// blocks the withdrawal.
func Gate(profile *model.Profile) error {
	if profile == nil || profile.GovernmentIDStatus != model.IDStatusApproved {
		return ErrIDNotVerified
	}
	return nil
}

// Validate checks a payout request against the available balance.
func Validate(req model.WithdrawalRequest, balance model.Amount) error {
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return &api.ValidationError{Field: "amount", Message: "Please enter a valid amount"}
	}
	amount := decimal.NewFromFloat(req.Amount)
	if !amount.IsPositive() {
		return &api.ValidationError{Field: "amount", Message: "Please enter a valid amount"}
	}
	if !balance.Valid || amount.GreaterThan(balance.Value) {
		return &api.ValidationError{Field: "amount", Message: "Insufficient balance"}
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return &api.ValidationError{Field: "payment_method", Message: "Please select a payment method"}
	}
	if strings.TrimSpace(req.PaymentDetails) == "" {
		return &api.ValidationError{Field: "payment_details", Message: "Please enter payment details"}
	}
	return nil
}

// Creator files a payout request with the backend.
type Creator interface {
	CreateWithdrawal(ctx context.Context, req model.WithdrawalRequest) (*model.Withdrawal, error)
}

// Withdraw runs the verification gate and request validation, and only
// then calls creator.
func Withdraw(ctx context.Context, profile *model.Profile, req model.WithdrawalRequest, creator Creator) (*model.Withdrawal, error) {
	if err := Gate(profile); err != nil {
		return nil, err
	}
	if err := Validate(req, profile.Balance); err != nil {
		return nil, err
	}
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	req.PaymentDetails = strings.TrimSpace(req.PaymentDetails)
	return creator.CreateWithdrawal(ctx, req)
}

// FilterByStatus returns the transactions with the given status. An empty
// status returns txs unchanged.
func FilterByStatus(txs []model.Transaction, status model.TransactionStatus) []model.Transaction {
	if status == "" {
		return txs
	}
	out := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Status == status {
			out = append(out, tx)
		}
	}
	return out
}

// FormatCurrency renders amount with symbol, rounded to whole units. With
// the rupee symbol the amount is converted at RupeeRate first.
func FormatCurrency(amount model.Amount, symbol string) string {
	if !amount.Valid {
		return symbol + "NaN"
	}
	v := amount.Value
	if symbol == "₹" {
		v = v.Mul(decimal.NewFromInt(RupeeRate))
	}
	// Half-way values round up, toward positive infinity.
	return symbol + v.Add(decimal.NewFromFloat(0.5)).Floor().String()
}

// FormatDecimal is FormatCurrency for an already valid value.
func FormatDecimal(v decimal.Decimal, symbol string) string {
	return FormatCurrency(model.Amount{Value: v, Valid: true}, symbol)
}
