package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// NotificationType drives the icon and color of a notification.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification is a message delivered to a user by the backend.
// IsRead only ever moves from false to true on the client.
type Notification struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"user_id" db:"user_id"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Type      NotificationType `json:"type" db:"type"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

type notificationWire struct {
	ID          flexInt          `json:"id"`
	UserID      flexInt          `json:"user_id"`
	UserIDCamel flexInt          `json:"userId"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type"`
	IsRead      flexBool         `json:"is_read"`
	IsReadCamel flexBool         `json:"isRead"`
	CreatedAt   string           `json:"created_at"`
	CreatedCml  string           `json:"createdAt"`
}

// UnmarshalJSON normalizes the snake_case and camelCase shapes.
func (n *Notification) UnmarshalJSON(data []byte) error {
	var w notificationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding notification: %w", err)
	}

	createdAt := timestampField("notification", w.ID.value, w.CreatedAt, w.CreatedCml)

	*n = Notification{
		ID:        w.ID.value,
		UserID:    pickInt(w.UserID, w.UserIDCamel),
		Title:     w.Title,
		Message:   w.Message,
		Type:      w.Type,
		IsRead:    pickBool(w.IsRead, w.IsReadCamel),
		CreatedAt: createdAt,
	}
	return nil
}

// UnreadCount returns the number of notifications not yet read.
func UnreadCount(notifications []Notification) int {
	n := 0
	for _, notification := range notifications {
		if !notification.IsRead {
			n++
		}
	}
	return n
}
