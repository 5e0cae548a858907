package api

import (
	"context"
	"fmt"

	"github.com/nhle/taskflow/internal/model"
)

// ListNotifications fetches the user's notifications.
func (c *Client) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	var list []model.Notification
	if err := c.get(ctx, "/notifications", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkNotificationRead marks one notification read on the server.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	return c.put(ctx, fmt.Sprintf("/notifications/%d/read", id), nil, nil)
}

// MarkAllNotificationsRead marks every notification read on the server.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.put(ctx, "/notifications/read-all", nil, nil)
}

// RegisterDeviceToken forwards the installation's push token.
func (c *Client) RegisterDeviceToken(ctx context.Context, token string) error {
	return c.post(ctx, "/notifications/fcm-token", map[string]string{"fcm_token": token}, nil)
}
