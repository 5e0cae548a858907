package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TxEarning           TransactionType = "earning"
	TxWithdrawal        TransactionType = "withdrawal"
	TxReferralBonus     TransactionType = "referral_bonus"
	TxTaskPayment       TransactionType = "task_payment"
	TxAdvertiserDeposit TransactionType = "advertiser_deposit"
)

// TransactionStatus is the settlement state of a ledger entry.
type TransactionStatus string

const (
	TxCompleted TransactionStatus = "completed"
	TxPending   TransactionStatus = "pending"
	TxFailed    TransactionStatus = "failed"
)

// Transaction is a single balance movement for a user or advertiser.
type Transaction struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	TaskID    *int64            `json:"task_id,omitempty"`
	Amount    Amount            `json:"amount"`
	Type      TransactionType   `json:"type"`
	Status    TransactionStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`

	// TaskTitle is populated when the backend embeds the related task.
	TaskTitle string `json:"task_title,omitempty"`
}

type transactionWire struct {
	ID          flexInt           `json:"id"`
	UserID      flexInt           `json:"user_id"`
	UserIDCamel flexInt           `json:"userId"`
	TaskID      flexInt           `json:"task_id"`
	TaskIDCamel flexInt           `json:"taskId"`
	Amount      Amount            `json:"amount"`
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	CreatedAt   string            `json:"created_at"`
	CreatedCml  string            `json:"createdAt"`
	Task        *struct {
		Title string `json:"title"`
	} `json:"task"`
}

// UnmarshalJSON normalizes the snake_case and camelCase shapes.
func (tx *Transaction) UnmarshalJSON(data []byte) error {
	var w transactionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding transaction: %w", err)
	}

	createdAt := timestampField("transaction", w.ID.value, w.CreatedAt, w.CreatedCml)

	*tx = Transaction{
		ID:        w.ID.value,
		UserID:    pickInt(w.UserID, w.UserIDCamel),
		Amount:    w.Amount,
		Type:      w.Type,
		Status:    w.Status,
		CreatedAt: createdAt,
	}
	if w.TaskID.set || w.TaskIDCamel.set {
		id := pickInt(w.TaskID, w.TaskIDCamel)
		tx.TaskID = &id
	}
	if w.Task != nil {
		tx.TaskTitle = w.Task.Title
	}
	return nil
}

// Label returns the display title for the transaction.
func (tx Transaction) Label() string {
	if tx.TaskTitle != "" {
		return tx.TaskTitle
	}
	switch tx.Type {
	case TxWithdrawal:
		return "Withdrawal"
	case TxReferralBonus:
		return "Referral bonus"
	case TxAdvertiserDeposit:
		return "Deposit"
	case TxTaskPayment:
		return "Task payment"
	default:
		return "Earning"
	}
}
