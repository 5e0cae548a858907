package sync

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/notify"
)

// Feed identifies a polled backend resource.
type Feed string

const (
	FeedNotifications Feed = "notifications"
	FeedTasks         Feed = "tasks"
)

// SyncState represents the current state of a feed refresh.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the sync state for a single feed.
type SyncStatus struct {
	Feed     Feed
	State    SyncState
	LastSync time.Time
	Error    error
}

// NotificationsMsg is a tea.Msg carrying a fresh notification list.
type NotificationsMsg struct {
	Notifications []model.Notification
	Unread        int
	NewCount      int
}

// TasksMsg is a tea.Msg carrying a fresh task list.
type TasksMsg struct {
	Tasks []model.Task
}

// SyncErrorMsg is a tea.Msg sent when a refresh fails for a reason other
// than authentication.
type SyncErrorMsg struct {
	Feed  Feed
	Error error
}

// AuthErrorMsg is a tea.Msg sent when the backend rejects the session.
type AuthErrorMsg struct {
	Message string
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// Backend is the part of the API client the poller uses.
type Backend interface {
	ListNotifications(ctx context.Context) ([]model.Notification, error)
	ListTasks(ctx context.Context) ([]model.Task, error)
	RegisterDeviceToken(ctx context.Context, token string) error
}

// TaskCache persists the last fetched task list for offline display.
type TaskCache interface {
	ReplaceTasks(ctx context.Context, userID int64, tasks []model.Task) error
}

// Config wires a Poller.
type Config struct {
	Backend     Backend
	Center      *notify.Center
	Tasks       TaskCache
	UserID      func() int64
	DeviceToken string
	Interval    time.Duration
	Logger      *slog.Logger
}

// Poller refreshes the notification and task feeds in the background and
// stands in for push delivery.
type Poller struct {
	cfg       Config
	statuses  map[Feed]*SyncStatus
	resultCh  chan tea.Msg
	triggerCh chan Feed
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a new Poller.
func New(cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.UserID == nil {
		cfg.UserID = func() int64 { return 0 }
	}
	return &Poller{
		cfg: cfg,
		statuses: map[Feed]*SyncStatus{
			FeedNotifications: {Feed: FeedNotifications},
			FeedTasks:         {Feed: FeedTasks},
		},
		resultCh:  make(chan tea.Msg, 16),
		triggerCh: make(chan Feed, 16),
		stopCh:    make(chan struct{}),
	}
}

// Start registers the device token, starts the polling goroutine and
// returns a command that delivers the first result to the Bubble Tea
// runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.registerDevice()
	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine. A stopped Poller cannot be restarted.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate poll of feed.
func (p *Poller) Refresh(feed Feed) {
	select {
	case p.triggerCh <- feed:
	default:
		// Channel full; a refresh is already queued.
	}
}

// GetStatuses returns the current sync status of every feed.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	return []SyncStatus{*p.statuses[FeedNotifications], *p.statuses[FeedTasks]}
}

func (p *Poller) registerDevice() {
	if p.cfg.DeviceToken == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	if err := p.cfg.Backend.RegisterDeviceToken(ctx, p.cfg.DeviceToken); err != nil {
		p.cfg.Logger.WarnContext(ctx, "registering device token", slog.Any("error", err))
		if api.IsAuthError(err) {
			p.sendResult(AuthErrorMsg{Message: api.Message(err)})
		}
		return
	}
	p.cfg.Logger.DebugContext(ctx, "device token registered")
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.fetch(FeedNotifications)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.fetch(FeedNotifications)
		case feed := <-p.triggerCh:
			p.fetch(feed)
		}
	}
}

func (p *Poller) fetch(feed Feed) {
	p.setStatus(feed, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	var (
		msg tea.Msg
		err error
	)
	switch feed {
	case FeedTasks:
		msg, err = p.fetchTasks(ctx)
	default:
		msg, err = p.fetchNotifications(ctx)
	}

	if err != nil {
		p.setStatus(feed, SyncError, err)
		p.cfg.Logger.WarnContext(ctx, "refresh failed", slog.String("feed", string(feed)), slog.Any("error", err))

		if api.IsAuthError(err) {
			p.sendResult(AuthErrorMsg{Message: api.Message(err)})
			return
		}
		p.sendResult(SyncErrorMsg{Feed: feed, Error: err})
		return
	}

	p.setStatus(feed, SyncIdle, nil)
	p.sendResult(msg)
}

func (p *Poller) fetchNotifications(ctx context.Context) (tea.Msg, error) {
	list, err := p.cfg.Backend.ListNotifications(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[int64]bool)
	for _, n := range p.cfg.Center.Notifications() {
		known[n.ID] = true
	}
	merged := p.cfg.Center.Ingest(ctx, list)

	newCount := 0
	if len(known) > 0 {
		for _, n := range merged {
			if !known[n.ID] && !n.IsRead {
				newCount++
			}
		}
	}
	return NotificationsMsg{
		Notifications: merged,
		Unread:        model.UnreadCount(merged),
		NewCount:      newCount,
	}, nil
}

func (p *Poller) fetchTasks(ctx context.Context) (tea.Msg, error) {
	tasks, err := p.cfg.Backend.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	if p.cfg.Tasks != nil {
		if err := p.cfg.Tasks.ReplaceTasks(ctx, p.cfg.UserID(), tasks); err != nil {
			p.cfg.Logger.WarnContext(ctx, "caching tasks", slog.Any("error", err))
		}
	}
	return TasksMsg{Tasks: tasks}, nil
}

// setStatus updates the sync status for a feed.
func (p *Poller) setStatus(feed Feed, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[feed]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends a result on the result channel without blocking.
func (p *Poller) sendResult(msg tea.Msg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// This should be called after processing a result to continue listening
// for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
