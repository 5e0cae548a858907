package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/tests/testutil"
)

func notification(id int64, read bool, created time.Time) model.Notification {
	return model.Notification{
		ID:        id,
		UserID:    1,
		Title:     "title",
		Message:   "message",
		Type:      model.NotificationInfo,
		IsRead:    read,
		CreatedAt: created,
	}
}

// ─── Notifications ──────────────────────────────────────────

func TestReplaceNotificationsNewestFirst(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := s.ReplaceNotifications(ctx, 1, []model.Notification{
		notification(1, false, base),
		notification(2, false, base.Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("ReplaceNotifications: %v", err)
	}

	got, err := s.GetNotifications(ctx, 1)
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("order = %+v, want ids [2 1]", got)
	}
}

func TestReplaceNotificationsKeepsReadFlag(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.ReplaceNotifications(ctx, 1, []model.Notification{notification(5, false, now)}); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkNotificationRead(ctx, 1, 5); err != nil {
		t.Fatal(err)
	}

	// A stale server copy still reports it unread.
	if err := s.ReplaceNotifications(ctx, 1, []model.Notification{notification(5, false, now)}); err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetNotifications(ctx, 1)
	if len(got) != 1 || !got[0].IsRead {
		t.Fatalf("read flag regressed: %+v", got)
	}
}

func TestReplaceNotificationsIsPerUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = s.ReplaceNotifications(ctx, 1, []model.Notification{notification(1, false, now)})
	_ = s.ReplaceNotifications(ctx, 2, []model.Notification{notification(2, false, now)})
	_ = s.ReplaceNotifications(ctx, 1, nil)

	if got, _ := s.GetNotifications(ctx, 1); len(got) != 0 {
		t.Errorf("user 1 should be empty, got %d", len(got))
	}
	if got, _ := s.GetNotifications(ctx, 2); len(got) != 1 {
		t.Errorf("user 2 should be untouched, got %d", len(got))
	}
}

func TestMarkNotificationReadIsPerUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = s.ReplaceNotifications(ctx, 1, []model.Notification{notification(7, false, now)})
	_ = s.ReplaceNotifications(ctx, 2, []model.Notification{notification(7, false, now)})

	if err := s.MarkNotificationRead(ctx, 1, 7); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.GetNotifications(ctx, 1); len(got) != 1 || !got[0].IsRead {
		t.Errorf("user 1 row not read: %+v", got)
	}
	if got, _ := s.GetNotifications(ctx, 2); len(got) != 1 || got[0].IsRead {
		t.Errorf("user 2 row with the same id changed: %+v", got)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_ = s.ReplaceNotifications(ctx, 1, []model.Notification{
		notification(1, false, now),
		notification(2, true, now),
		notification(3, false, now),
	})
	if err := s.MarkAllNotificationsRead(ctx, 1); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetNotifications(ctx, 1)
	if model.UnreadCount(got) != 0 {
		t.Errorf("unread = %d, want 0", model.UnreadCount(got))
	}
}

// ─── Tasks ──────────────────────────────────────────────────

func TestTaskCacheRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	tasks := []model.Task{
		{ID: 9, Title: "Follow", Reward: model.MustAmount("1.50"), ApprovalType: model.ApprovalManual},
		{ID: 3, Title: "Review", Reward: model.ParseAmount("oops")},
	}
	if err := s.ReplaceTasks(ctx, 1, tasks); err != nil {
		t.Fatalf("ReplaceTasks: %v", err)
	}

	got, err := s.GetTasks(ctx, 1)
	if err != nil {
		t.Fatalf("GetTasks: %v", err)
	}
	if len(got) != 2 || got[0].ID != 9 || got[1].ID != 3 {
		t.Fatalf("order = %+v", got)
	}
	if got[0].Reward.String() != "1.50" || got[0].ApprovalType != model.ApprovalManual {
		t.Errorf("task 9 = %+v", got[0])
	}
	if got[1].Reward.Valid {
		t.Error("invalid reward should stay invalid")
	}
}

// ─── Completions ────────────────────────────────────────────

func TestCompletionUpsert(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	c, err := s.GetCompletion(ctx, 4, 1)
	if err != nil || c != nil {
		t.Fatalf("missing completion = %v, %v; want nil, nil", c, err)
	}

	when := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	if err := s.PutCompletion(ctx, model.Completion{TaskID: 4, UserID: 1, Hourly: 1, Daily: 3, LastCompletion: when}); err != nil {
		t.Fatal(err)
	}
	if err := s.PutCompletion(ctx, model.Completion{TaskID: 4, UserID: 1, Hourly: 2, Daily: 4, LastCompletion: when}); err != nil {
		t.Fatal(err)
	}

	c, err = s.GetCompletion(ctx, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	if c.Hourly != 2 || c.Daily != 4 || !c.LastCompletion.Equal(when) {
		t.Errorf("completion = %+v", c)
	}

	list, _ := s.ListCompletions(ctx, 1)
	if len(list) != 1 {
		t.Errorf("list = %d rows, want 1", len(list))
	}
}
