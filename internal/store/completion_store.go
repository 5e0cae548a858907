package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nhle/taskflow/internal/model"
)

// GetCompletion returns the counters for a task and user, or nil when the
// user never completed the task.
func (s *SQLiteStore) GetCompletion(ctx context.Context, taskID, userID int64) (*model.Completion, error) {
	var c model.Completion
	err := s.db.GetContext(ctx, &c, `
		SELECT task_id, user_id, hourly, daily, last_completion
		FROM task_completions
		WHERE task_id = ? AND user_id = ?`, taskID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting completion %d-%d: %w", taskID, userID, err)
	}
	return &c, nil
}

// PutCompletion inserts or replaces the counters for a task and user.
func (s *SQLiteStore) PutCompletion(ctx context.Context, c model.Completion) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO task_completions (
			task_id, user_id, hourly, daily, last_completion
		) VALUES (?, ?, ?, ?, ?)`,
		c.TaskID, c.UserID, c.Hourly, c.Daily, c.LastCompletion.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving completion %d-%d: %w", c.TaskID, c.UserID, err)
	}
	return nil
}

// ListCompletions returns every counter row for userID.
func (s *SQLiteStore) ListCompletions(ctx context.Context, userID int64) ([]model.Completion, error) {
	var list []model.Completion
	err := s.db.SelectContext(ctx, &list, `
		SELECT task_id, user_id, hourly, daily, last_completion
		FROM task_completions
		WHERE user_id = ?
		ORDER BY last_completion DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing completions: %w", err)
	}
	return list, nil
}
