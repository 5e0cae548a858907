// Package notify keeps the notification list and its read state consistent
// between the backend, an in-memory cache and the local mirror.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	gosync "sync"

	"github.com/nhle/taskflow/internal/model"
)

// Remote is the backend side of the notification feed.
type Remote interface {
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// Mirror is the persisted fallback copy.
type Mirror interface {
	ReplaceNotifications(ctx context.Context, userID int64, list []model.Notification) error
	GetNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) error
}

// Source names the tier that served the current list.
type Source string

const (
	SourceNone   Source = ""
	SourceRemote Source = "remote"
	SourceMemory Source = "memory"
	SourceMirror Source = "mirror"
)

// Center owns the notification list shown in the panel and the header
// badge. Read flags only move from unread to read; a failed remote mark
// is reported but not rolled back.
type Center struct {
	mu      gosync.Mutex
	remote  Remote
	mirror  Mirror
	userID  func() int64
	logger  *slog.Logger
	cache   []model.Notification
	current []model.Notification
	source  Source
	readIDs map[int64]bool
}

// NewCenter creates a Center. userID resolves the signed-in user for the
// mirror; mirror may be nil.
func NewCenter(remote Remote, mirror Mirror, userID func() int64, logger *slog.Logger) *Center {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Center{
		remote:  remote,
		mirror:  mirror,
		userID:  userID,
		logger:  logger,
		readIDs: make(map[int64]bool),
	}
}

// Open fetches the remote list. When that fails it falls back to the
// in-memory cache, then to the mirror. An error is returned only when no
// tier could produce a list.
func (c *Center) Open(ctx context.Context) ([]model.Notification, error) {
	list, err := c.remote.ListNotifications(ctx)
	if err == nil {
		return c.Ingest(ctx, list), nil
	}
	c.logger.WarnContext(ctx, "fetching notifications", slog.Any("error", err))

	c.mu.Lock()
	if c.cache != nil {
		c.current = c.withReadFlags(c.cache)
		c.source = SourceMemory
		out := slices.Clone(c.current)
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	if c.mirror == nil {
		return nil, err
	}
	mirrored, mirrorErr := c.mirror.GetNotifications(ctx, c.userID())
	if mirrorErr != nil {
		return nil, errors.Join(err, fmt.Errorf("reading notification mirror: %w", mirrorErr))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.withReadFlags(mirrored)
	c.source = SourceMirror
	return slices.Clone(c.current), nil
}

// Ingest installs a freshly fetched remote list as the authoritative one
// and refreshes the mirror. It is used by Open and by the background poller.
func (c *Center) Ingest(ctx context.Context, list []model.Notification) []model.Notification {
	c.mu.Lock()
	merged := c.withReadFlags(list)
	if merged == nil {
		merged = []model.Notification{}
	}
	c.cache = merged
	c.current = merged
	c.source = SourceRemote
	out := slices.Clone(merged)
	c.mu.Unlock()

	if c.mirror != nil {
		if err := c.mirror.ReplaceNotifications(ctx, c.userID(), out); err != nil {
			c.logger.WarnContext(ctx, "updating notification mirror", slog.Any("error", err))
		}
	}
	return out
}

// MarkRead flips one notification to read locally, then tells the backend.
func (c *Center) MarkRead(ctx context.Context, id int64) error {
	c.mu.Lock()
	c.readIDs[id] = true
	c.current = c.withReadFlags(c.current)
	if c.cache != nil {
		c.cache = c.withReadFlags(c.cache)
	}
	c.mu.Unlock()

	if c.mirror != nil {
		if err := c.mirror.MarkNotificationRead(ctx, c.userID(), id); err != nil {
			c.logger.WarnContext(ctx, "marking mirrored notification read", slog.Int64("id", id), slog.Any("error", err))
		}
	}
	if err := c.remote.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("marking notification %d read: %w", id, err)
	}
	return nil
}

// MarkAllRead flips every loaded notification to read, then tells the backend.
func (c *Center) MarkAllRead(ctx context.Context) error {
	c.mu.Lock()
	for _, n := range c.current {
		c.readIDs[n.ID] = true
	}
	for _, n := range c.cache {
		c.readIDs[n.ID] = true
	}
	c.current = c.withReadFlags(c.current)
	if c.cache != nil {
		c.cache = c.withReadFlags(c.cache)
	}
	c.mu.Unlock()

	if c.mirror != nil {
		if err := c.mirror.MarkAllNotificationsRead(ctx, c.userID()); err != nil {
			c.logger.WarnContext(ctx, "marking mirrored notifications read", slog.Any("error", err))
		}
	}
	if err := c.remote.MarkAllNotificationsRead(ctx); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// Close drops the in-memory cache so the next Open starts from the
// backend. The mirror and the known read flags are kept.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = nil
}

// Reset forgets everything held in memory, e.g. after logout.
func (c *Center) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = nil
	c.current = nil
	c.source = SourceNone
	c.readIDs = make(map[int64]bool)
}

// Notifications returns a copy of the authoritative list.
func (c *Center) Notifications() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.current)
}

// Unread is the badge count of the authoritative list.
func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.UnreadCount(c.current)
}

// Source reports which tier served the authoritative list.
func (c *Center) Source() Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// withReadFlags returns a copy of list with every known-read id marked
// read, and records ids the list itself reports as read. Callers hold mu.
func (c *Center) withReadFlags(list []model.Notification) []model.Notification {
	if list == nil {
		return nil
	}
	out := make([]model.Notification, len(list))
	for i, n := range list {
		if n.IsRead {
			c.readIDs[n.ID] = true
		}
		n.IsRead = n.IsRead || c.readIDs[n.ID]
		out[i] = n
	}
	return out
}
