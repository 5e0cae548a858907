package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReviewStatus is the outcome of a manual review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Submission is a worker's proof for a task awaiting or past review.
type Submission struct {
	ID        int64        `json:"id"`
	TaskID    int64        `json:"task_id"`
	TaskTitle string       `json:"task_title"`
	UserID    int64        `json:"user_id"`
	UserName  string       `json:"user_name"`
	Reward    Amount       `json:"reward"`
	Status    ReviewStatus `json:"status"`
	Proofs    []Proof      `json:"proofs"`
	CreatedAt time.Time    `json:"created_at"`
}

type submissionWire struct {
	ID          flexInt      `json:"id"`
	TaskID      flexInt      `json:"task_id"`
	TaskIDCamel flexInt      `json:"taskId"`
	TaskTitle   string       `json:"task_title"`
	UserID      flexInt      `json:"user_id"`
	UserIDCamel flexInt      `json:"userId"`
	UserName    string       `json:"user_name"`
	Reward      Amount       `json:"reward"`
	Status      ReviewStatus `json:"status"`
	Proofs      []Proof      `json:"proofs"`
	CreatedAt   string       `json:"created_at"`
	CreatedCml  string       `json:"createdAt"`
	Task        *struct {
		Title  string `json:"title"`
		Reward Amount `json:"reward"`
	} `json:"task"`
	User *struct {
		Name string `json:"name"`
	} `json:"user"`
}

// UnmarshalJSON accepts flat and nested task/user shapes.
func (s *Submission) UnmarshalJSON(data []byte) error {
	var w submissionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding submission: %w", err)
	}
	createdAt := timestampField("submission", w.ID.value, w.CreatedAt, w.CreatedCml)

	*s = Submission{
		ID:        w.ID.value,
		TaskID:    pickInt(w.TaskID, w.TaskIDCamel),
		TaskTitle: w.TaskTitle,
		UserID:    pickInt(w.UserID, w.UserIDCamel),
		UserName:  w.UserName,
		Reward:    w.Reward,
		Status:    w.Status,
		Proofs:    w.Proofs,
		CreatedAt: createdAt,
	}
	if w.Task != nil {
		s.TaskTitle = firstNonEmpty(s.TaskTitle, w.Task.Title)
		if !s.Reward.Valid {
			s.Reward = w.Task.Reward
		}
	}
	if w.User != nil {
		s.UserName = firstNonEmpty(s.UserName, w.User.Name)
	}
	return nil
}

// WithdrawalRequest is the body of POST /withdrawals.
type WithdrawalRequest struct {
	Amount         float64 `json:"amount"`
	PaymentMethod  string  `json:"payment_method"`
	PaymentDetails string  `json:"payment_details"`
}

// Withdrawal is a payout request and its processing state.
type Withdrawal struct {
	ID             int64        `json:"id"`
	UserID         int64        `json:"user_id"`
	UserName       string       `json:"user_name,omitempty"`
	UserEmail      string       `json:"user_email,omitempty"`
	Amount         Amount       `json:"amount"`
	PaymentMethod  string       `json:"payment_method"`
	PaymentDetails string       `json:"payment_details"`
	Status         ReviewStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
}

type withdrawalWire struct {
	ID             flexInt      `json:"id"`
	UserID         flexInt      `json:"user_id"`
	UserIDCamel    flexInt      `json:"userId"`
	UserName       string       `json:"user_name"`
	UserEmail      string       `json:"user_email"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Amount         Amount       `json:"amount"`
	PaymentMethod  string       `json:"payment_method"`
	PaymentMethodC string       `json:"paymentMethod"`
	PaymentDetails string       `json:"payment_details"`
	PaymentDetailC string       `json:"paymentDetails"`
	Status         ReviewStatus `json:"status"`
	CreatedAt      string       `json:"created_at"`
	CreatedCml     string       `json:"createdAt"`
	User           *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

// UnmarshalJSON normalizes user and pending-queue withdrawal shapes.
func (wd *Withdrawal) UnmarshalJSON(data []byte) error {
	var w withdrawalWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding withdrawal: %w", err)
	}
	createdAt := timestampField("withdrawal", w.ID.value, w.CreatedAt, w.CreatedCml)
	status := w.Status
	if status == "" {
		status = ReviewPending
	}

	*wd = Withdrawal{
		ID:             w.ID.value,
		UserID:         pickInt(w.UserID, w.UserIDCamel),
		UserName:       firstNonEmpty(w.UserName, w.Name),
		UserEmail:      firstNonEmpty(w.UserEmail, w.Email),
		Amount:         w.Amount,
		PaymentMethod:  firstNonEmpty(w.PaymentMethod, w.PaymentMethodC),
		PaymentDetails: firstNonEmpty(w.PaymentDetails, w.PaymentDetailC),
		Status:         status,
		CreatedAt:      createdAt,
	}
	if w.User != nil {
		wd.UserName = firstNonEmpty(wd.UserName, w.User.Name)
		wd.UserEmail = firstNonEmpty(wd.UserEmail, w.User.Email)
	}
	return nil
}

// DisputeResolution names the party a dispute is resolved in favor of.
type DisputeResolution string

const (
	ResolveForUser       DisputeResolution = "user"
	ResolveForAdvertiser DisputeResolution = "advertiser"
)

// Dispute is a contested failed earning.
type Dispute struct {
	ID            int64        `json:"id"`
	TransactionID int64        `json:"transaction_id"`
	UserName      string       `json:"user_name"`
	TaskTitle     string       `json:"task_title"`
	Amount        Amount       `json:"amount"`
	Reason        string       `json:"reason"`
	Evidence      string       `json:"evidence,omitempty"`
	Status        ReviewStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
}

type disputeWire struct {
	ID            flexInt      `json:"id"`
	TransactionID flexInt      `json:"transaction_id"`
	TxIDCamel     flexInt      `json:"transactionId"`
	UserName      string       `json:"user_name"`
	TaskTitle     string       `json:"task_title"`
	Amount        Amount       `json:"amount"`
	Reason        string       `json:"reason"`
	Evidence      string       `json:"evidence"`
	Status        ReviewStatus `json:"status"`
	CreatedAt     string       `json:"created_at"`
	CreatedCml    string       `json:"createdAt"`
}

func (d *Dispute) UnmarshalJSON(data []byte) error {
	var w disputeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding dispute: %w", err)
	}
	createdAt := timestampField("dispute", w.ID.value, w.CreatedAt, w.CreatedCml)
	*d = Dispute{
		ID:            w.ID.value,
		TransactionID: pickInt(w.TransactionID, w.TxIDCamel),
		UserName:      w.UserName,
		TaskTitle:     w.TaskTitle,
		Amount:        w.Amount,
		Reason:        w.Reason,
		Evidence:      w.Evidence,
		Status:        w.Status,
		CreatedAt:     createdAt,
	}
	return nil
}

// AdminStats are the platform-wide counters on the admin dashboard.
type AdminStats struct {
	Users              int    `json:"users"`
	Tasks              int    `json:"tasks"`
	PendingSubmissions int    `json:"pendingSubmissions"`
	TotalEarnings      Amount `json:"totalEarnings"`
}

// ReviewResult is returned after a submission review credits or rejects it.
type ReviewResult struct {
	Submission  Submission   `json:"submission"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

// TargetedNotification is sent by an admin to specific users.
type TargetedNotification struct {
	UserIDs []int64 `json:"user_ids"`
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Data    struct {
		Message string `json:"message"`
	} `json:"data"`
	Notification struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Badge int    `json:"badge"`
		Sound string `json:"sound"`
		URL   string `json:"url,omitempty"`
	} `json:"notification"`
}

// NewTargetedNotification fills the push sub-payloads from title and message.
func NewTargetedNotification(userIDs []int64, title, message string) TargetedNotification {
	n := TargetedNotification{UserIDs: userIDs, Title: title, Message: message}
	n.Data.Message = message
	n.Notification.Title = title
	n.Notification.Body = message
	n.Notification.Badge = 1
	n.Notification.Sound = "default"
	return n
}

// Broadcast is a notification sent to every user.
type Broadcast struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
	Image   string `json:"image,omitempty"`
}
