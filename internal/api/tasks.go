package api

import (
	"context"
	"fmt"

	"github.com/nhle/taskflow/internal/model"
)

// SubmissionReceipt is returned after a task submission is accepted.
type SubmissionReceipt struct {
	Submission  *model.Submission  `json:"submission,omitempty"`
	Transaction *model.Transaction `json:"transaction,omitempty"`
}

// ListTasks fetches the tasks available to the user.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.get(ctx, "/tasks", &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// SubmitTask sends the collected proofs for a task.
func (c *Client) SubmitTask(ctx context.Context, taskID int64, proofs []model.Proof) (*SubmissionReceipt, error) {
	var receipt SubmissionReceipt
	body := map[string]any{"proofs": proofs}
	if err := c.post(ctx, fmt.Sprintf("/tasks/%d/submit", taskID), body, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// TaskAvailability asks whether the user may start the task now. An empty
// answer means the task is available.
func (c *Client) TaskAvailability(ctx context.Context, taskID int64) (*model.TaskAvailability, error) {
	avail := model.TaskAvailability{CanComplete: true}
	if err := c.get(ctx, fmt.Sprintf("/tasks/%d/availability", taskID), &avail); err != nil {
		return nil, err
	}
	return &avail, nil
}
