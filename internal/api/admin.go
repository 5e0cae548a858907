package api

import (
	"context"
	"fmt"

	"github.com/nhle/taskflow/internal/model"
)

func validReview(status model.ReviewStatus) error {
	if status != model.ReviewApproved && status != model.ReviewRejected {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("status must be approved or rejected, got %q", status)}
	}
	return nil
}

// AdminUsers lists every account.
func (c *Client) AdminUsers(ctx context.Context) ([]model.AdminUser, error) {
	var users []model.AdminUser
	if err := c.get(ctx, "/admin/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AdminStats returns the dashboard counters.
func (c *Client) AdminStats(ctx context.Context) (*model.AdminStats, error) {
	var stats model.AdminStats
	if err := c.get(ctx, "/admin/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// PendingWithdrawals returns payout requests awaiting a decision.
func (c *Client) PendingWithdrawals(ctx context.Context) ([]model.Withdrawal, error) {
	var list []model.Withdrawal
	if err := c.get(ctx, "/admin/withdrawals/pending", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ProcessWithdrawal approves or rejects a payout request.
func (c *Client) ProcessWithdrawal(ctx context.Context, id int64, status model.ReviewStatus) error {
	if err := validReview(status); err != nil {
		return err
	}
	return c.put(ctx, fmt.Sprintf("/admin/withdrawals/%d/process", id), map[string]string{"status": string(status)}, nil)
}

// PendingIDVerifications lists users whose government ID awaits review.
func (c *Client) PendingIDVerifications(ctx context.Context) ([]model.AdminUser, error) {
	var users []model.AdminUser
	if err := c.get(ctx, "/admin/users/pending-verifications", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// VerifyUserID records the ID review outcome for a user.
func (c *Client) VerifyUserID(ctx context.Context, userID int64, status model.ReviewStatus) error {
	if err := validReview(status); err != nil {
		return err
	}
	return c.put(ctx, fmt.Sprintf("/admin/%d/verify-id", userID), map[string]string{"status": string(status)}, nil)
}

// PendingSubmissions lists submissions awaiting manual review.
func (c *Client) PendingSubmissions(ctx context.Context) ([]model.Submission, error) {
	var list []model.Submission
	if err := c.get(ctx, "/admin/submissions/pending", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ReviewSubmission approves or rejects a submission for a task.
func (c *Client) ReviewSubmission(ctx context.Context, taskID, submissionID int64, status model.ReviewStatus) (*model.ReviewResult, error) {
	if err := validReview(status); err != nil {
		return nil, err
	}
	var result model.ReviewResult
	body := map[string]any{"submission_id": submissionID, "status": status}
	if err := c.put(ctx, fmt.Sprintf("/tasks/%d/review", taskID), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PendingTasks lists advertiser tasks awaiting admin approval.
func (c *Client) PendingTasks(ctx context.Context) ([]model.Campaign, error) {
	var list []model.Campaign
	if err := c.get(ctx, "/admin/tasks/pending", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ReviewTask approves or rejects an advertiser task with feedback.
func (c *Client) ReviewTask(ctx context.Context, taskID int64, status model.ReviewStatus, feedback string) error {
	if err := validReview(status); err != nil {
		return err
	}
	body := map[string]string{"status": string(status), "feedback": feedback}
	return c.put(ctx, fmt.Sprintf("/admin/tasks/%d/review", taskID), body, nil)
}

// CreateTask publishes a new platform task.
func (c *Client) CreateTask(ctx context.Context, in model.TaskInput) (*model.Task, error) {
	var task model.Task
	if err := c.post(ctx, "/tasks", in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask edits an existing platform task.
func (c *Client) UpdateTask(ctx context.Context, taskID int64, in model.TaskInput) (*model.Task, error) {
	var task model.Task
	if err := c.put(ctx, fmt.Sprintf("/tasks/%d", taskID), in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SendNotification delivers a notification to specific users.
func (c *Client) SendNotification(ctx context.Context, n model.TargetedNotification) error {
	if len(n.UserIDs) == 0 {
		return &ValidationError{Field: "user_ids", Message: "Select at least one user"}
	}
	return c.post(ctx, "/admin/notifications/send", n, nil)
}

// BroadcastNotification delivers a notification to every user.
func (c *Client) BroadcastNotification(ctx context.Context, b model.Broadcast) error {
	if b.Title == "" || b.Message == "" {
		return &ValidationError{Field: "message", Message: "Title and message are required"}
	}
	return c.post(ctx, "/admin/notifications/broadcast", b, nil)
}
