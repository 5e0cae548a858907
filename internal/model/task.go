package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Difficulty is the advertised effort level of a task.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ApprovalType controls whether a submission is credited immediately or
// after manual review.
type ApprovalType string

const (
	ApprovalAutomatic ApprovalType = "automatic"
	ApprovalManual    ApprovalType = "manual"
)

// ProofType identifies the kind of evidence a task requires.
type ProofType string

const (
	ProofScreenshot ProofType = "screenshot"
	ProofText       ProofType = "text"
	ProofURL        ProofType = "url"
)

// ProofRequirement is a single piece of evidence a task asks for.
type ProofRequirement struct {
	Type        ProofType `json:"type"`
	Description string    `json:"description"`
}

// Proof is a piece of evidence attached to a submission.
type Proof struct {
	Type    ProofType `json:"type"`
	URL     string    `json:"url,omitempty"`
	Content string    `json:"content,omitempty"`
}

// Task is a unit of paid work offered on the marketplace.
type Task struct {
	ID                int64              `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Reward            Amount             `json:"reward"`
	TimeEstimate      string             `json:"time_estimate"`
	Category          string             `json:"category"`
	Difficulty        Difficulty         `json:"difficulty"`
	TimeInSeconds     int                `json:"time_in_seconds"`
	Steps             []string           `json:"steps"`
	ApprovalType      ApprovalType       `json:"approval_type"`
	ProofRequirements []ProofRequirement `json:"proof_requirements,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	IsActive          bool               `json:"is_active"`

	// Per-user completion limits. Zero means unlimited.
	HourlyLimit int `json:"hourly_limit,omitempty"`
	DailyLimit  int `json:"daily_limit,omitempty"`
}

// taskWire is the union of the snake_case and camelCase shapes the backend
// has emitted for a task.
type taskWire struct {
	ID                flexInt            `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Reward            Amount             `json:"reward"`
	TimeEstimate      string             `json:"time_estimate"`
	TimeEstimateCamel string             `json:"timeEstimate"`
	Category          string             `json:"category"`
	Difficulty        Difficulty         `json:"difficulty"`
	TimeInSeconds     flexInt            `json:"time_in_seconds"`
	TimeInSecondsCml  flexInt            `json:"timeInSeconds"`
	Steps             []string           `json:"steps"`
	ApprovalType      ApprovalType       `json:"approval_type"`
	ApprovalTypeCamel ApprovalType       `json:"approvalType"`
	ProofRequirements []ProofRequirement `json:"proof_requirements"`
	ProofReqsCamel    []ProofRequirement `json:"proofRequirements"`
	CreatedAt         string             `json:"created_at"`
	CreatedAtCamel    string             `json:"createdAt"`
	IsActive          flexBool           `json:"is_active"`
	IsActiveCamel     flexBool           `json:"isActive"`
	HourlyLimit       flexInt            `json:"hourly_limit"`
	HourlyLimitCamel  flexInt            `json:"hourlyLimit"`
	DailyLimit        flexInt            `json:"daily_limit"`
	DailyLimitCamel   flexInt            `json:"dailyLimit"`
}

// UnmarshalJSON normalizes both field spellings into a single Task.
// camelCase values win only when the snake_case field is absent.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w taskWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding task: %w", err)
	}

	createdAt := timestampField("task", w.ID.value, w.CreatedAt, w.CreatedAtCamel)

	proofs := w.ProofRequirements
	if proofs == nil {
		proofs = w.ProofReqsCamel
	}

	*t = Task{
		ID:                w.ID.value,
		Title:             w.Title,
		Description:       w.Description,
		Reward:            w.Reward,
		TimeEstimate:      firstNonEmpty(w.TimeEstimate, w.TimeEstimateCamel),
		Category:          w.Category,
		Difficulty:        w.Difficulty,
		TimeInSeconds:     int(pickInt(w.TimeInSeconds, w.TimeInSecondsCml)),
		Steps:             w.Steps,
		ApprovalType:      ApprovalType(firstNonEmpty(string(w.ApprovalType), string(w.ApprovalTypeCamel))),
		ProofRequirements: proofs,
		CreatedAt:         createdAt,
		IsActive:          pickBool(w.IsActive, w.IsActiveCamel),
		HourlyLimit:       int(pickInt(w.HourlyLimit, w.HourlyLimitCamel)),
		DailyLimit:        int(pickInt(w.DailyLimit, w.DailyLimitCamel)),
	}
	return nil
}

// TaskAvailability is the backend's verdict on whether the current user may
// start a task right now.
type TaskAvailability struct {
	CanComplete bool   `json:"canComplete"`
	Message     string `json:"message,omitempty"`
}

// TaskInput is the payload used by admins and advertisers to create or
// edit a task.
type TaskInput struct {
	Title                string             `json:"title"`
	Description          string             `json:"description"`
	Reward               float64            `json:"reward"`
	TimeEstimate         string             `json:"time_estimate"`
	Category             string             `json:"category"`
	Difficulty           Difficulty         `json:"difficulty"`
	TimeInSeconds        int                `json:"time_in_seconds"`
	Steps                []string           `json:"steps"`
	ApprovalType         ApprovalType       `json:"approval_type"`
	AllowedCountries     []string           `json:"allowed_countries,omitempty"`
	HourlyLimit          int                `json:"hourly_limit,omitempty"`
	DailyLimit           int                `json:"daily_limit,omitempty"`
	TotalSubmissionLimit int                `json:"total_submission_limit,omitempty"`
	DailySubmissionLimit int                `json:"daily_submission_limit,omitempty"`
	ProofRequirements    []ProofRequirement `json:"proof_requirements,omitempty"`
	TotalBudget          float64            `json:"total_budget,omitempty"`
	IsActive             bool               `json:"is_active"`
	OneOff               bool               `json:"one_off"`
}
