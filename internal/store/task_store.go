package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nhle/taskflow/internal/model"
)

// ReplaceTasks caches the last fetched task list for userID, keeping the
// order the backend returned.
func (s *SQLiteStore) ReplaceTasks(ctx context.Context, userID int64, tasks []model.Task) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clearing task cache for user %d: %w", userID, err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT OR REPLACE INTO tasks (id, user_id, position, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, t := range tasks {
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshaling task %d: %w", t.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, t.ID, userID, i, string(payload), now); err != nil {
			return fmt.Errorf("caching task %d: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// GetTasks returns the cached task list for userID in backend order.
func (s *SQLiteStore) GetTasks(ctx context.Context, userID int64) ([]model.Task, error) {
	var payloads []string
	err := s.db.SelectContext(ctx, &payloads,
		"SELECT payload FROM tasks WHERE user_id = ? ORDER BY position", userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying task cache: %w", err)
	}

	tasks := make([]model.Task, 0, len(payloads))
	for _, p := range payloads {
		var t model.Task
		if err := json.Unmarshal([]byte(p), &t); err != nil {
			return nil, fmt.Errorf("unmarshaling cached task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
