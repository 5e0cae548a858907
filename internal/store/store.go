package store

import (
	"context"

	"github.com/nhle/taskflow/internal/model"
)

// Store defines the local persistence used as an offline mirror of the
// backend and for client-side throttling counters.
type Store interface {
	// === Notification mirror ===

	// ReplaceNotifications swaps the mirror for userID with list. A row
	// already marked read stays read even if list says otherwise.
	ReplaceNotifications(ctx context.Context, userID int64, list []model.Notification) error
	GetNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) error

	// === Task cache ===

	ReplaceTasks(ctx context.Context, userID int64, tasks []model.Task) error
	GetTasks(ctx context.Context, userID int64) ([]model.Task, error)

	// === Completion counters ===

	GetCompletion(ctx context.Context, taskID, userID int64) (*model.Completion, error)
	PutCompletion(ctx context.Context, c model.Completion) error
	ListCompletions(ctx context.Context, userID int64) ([]model.Completion, error)

	Close() error
}
