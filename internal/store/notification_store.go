package store

import (
	"context"
	"fmt"

	"github.com/nhle/taskflow/internal/model"
)

// ReplaceNotifications swaps the stored notifications for userID with
// list inside a single transaction. Read flags never go back to unread.
func (s *SQLiteStore) ReplaceNotifications(
	ctx context.Context,
	userID int64,
	list []model.Notification,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var readIDs []int64
	err = tx.SelectContext(ctx, &readIDs,
		"SELECT id FROM notifications WHERE user_id = ? AND is_read = 1", userID,
	)
	if err != nil {
		return fmt.Errorf("reading read flags: %w", err)
	}
	alreadyRead := make(map[int64]bool, len(readIDs))
	for _, id := range readIDs {
		alreadyRead[id] = true
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clearing notifications for user %d: %w", userID, err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT OR REPLACE INTO notifications (
			id, user_id, title, message, type, is_read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, n := range list {
		read := n.IsRead || alreadyRead[n.ID]
		_, err := stmt.ExecContext(ctx,
			n.ID, userID, n.Title, n.Message, string(n.Type),
			boolToInt(read), n.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting notification %d: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// GetNotifications returns the mirrored notifications for userID, newest first.
func (s *SQLiteStore) GetNotifications(
	ctx context.Context,
	userID int64,
) ([]model.Notification, error) {
	var list []model.Notification
	err := s.db.SelectContext(ctx, &list, `
		SELECT id, user_id, title, message, type, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	return list, nil
}

// MarkNotificationRead marks one of userID's notifications as read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?", id, userID,
	)
	if err != nil {
		return fmt.Errorf("marking notification %d as read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification of userID as read.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE user_id = ?", userID,
	)
	if err != nil {
		return fmt.Errorf("marking notifications of user %d as read: %w", userID, err)
	}
	return nil
}
