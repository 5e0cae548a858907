// Package cooldown tracks how often the user completed each task so the
// client can refuse a start before the backend would.
package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/taskflow/internal/model"
)

// Counter windows.
const (
	HourlyWindow = time.Hour
	DailyWindow  = 24 * time.Hour
)

// Store persists completion counters.
type Store interface {
	GetCompletion(ctx context.Context, taskID, userID int64) (*model.Completion, error)
	PutCompletion(ctx context.Context, c model.Completion) error
}

// Limits caps completions per window. Zero disables a cap.
type Limits struct {
	Hourly int
	Daily  int
}

// LimitsFor reads the caps configured on a task.
func LimitsFor(t model.Task) Limits {
	return Limits{Hourly: t.HourlyLimit, Daily: t.DailyLimit}
}

// Tracker reads and updates counters. now is injectable for tests.
type Tracker struct {
	store Store
	now   func() time.Time
}

// NewTracker creates a Tracker over s.
func NewTracker(s Store) *Tracker {
	return &Tracker{store: s, now: time.Now}
}

// Counts returns the current counters for a task and user. Counters older
// than their window read as zero; nothing is written back.
func (t *Tracker) Counts(ctx context.Context, taskID, userID int64) (model.Completion, error) {
	c, err := t.store.GetCompletion(ctx, taskID, userID)
	if err != nil {
		return model.Completion{}, fmt.Errorf("reading completion counters: %w", err)
	}
	if c == nil {
		return model.Completion{TaskID: taskID, UserID: userID}, nil
	}
	return expire(*c, t.now()), nil
}

// Record counts one more completion now.
func (t *Tracker) Record(ctx context.Context, taskID, userID int64) (model.Completion, error) {
	c, err := t.Counts(ctx, taskID, userID)
	if err != nil {
		return model.Completion{}, err
	}
	c.Hourly++
	c.Daily++
	c.LastCompletion = t.now()
	if err := t.store.PutCompletion(ctx, c); err != nil {
		return model.Completion{}, fmt.Errorf("recording completion: %w", err)
	}
	return c, nil
}

// Allowed reports whether another completion fits within limits. When it
// does not, the returned message says which cap was hit.
func (t *Tracker) Allowed(ctx context.Context, taskID, userID int64, limits Limits) (bool, string, error) {
	c, err := t.Counts(ctx, taskID, userID)
	if err != nil {
		return false, "", err
	}
	if limits.Hourly > 0 && c.Hourly >= limits.Hourly {
		return false, fmt.Sprintf("Hourly limit reached (%d per hour). Try again later.", limits.Hourly), nil
	}
	if limits.Daily > 0 && c.Daily >= limits.Daily {
		return false, fmt.Sprintf("Daily limit reached (%d per day). Try again tomorrow.", limits.Daily), nil
	}
	return true, "", nil
}

func expire(c model.Completion, now time.Time) model.Completion {
	age := now.Sub(c.LastCompletion)
	if age > HourlyWindow {
		c.Hourly = 0
	}
	if age > DailyWindow {
		c.Daily = 0
	}
	return c
}
