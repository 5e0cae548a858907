package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/taskflow/internal/model"
)

// RaiseDispute contests a failed earning. The reason must not be blank.
func (c *Client) RaiseDispute(ctx context.Context, txID int64, reason, evidence string) error {
	if strings.TrimSpace(reason) == "" {
		return &ValidationError{Field: "reason", Message: "Please provide a reason for the dispute"}
	}
	body := map[string]string{"reason": reason, "evidence": evidence}
	return c.post(ctx, fmt.Sprintf("/disputes/transactions/%d/dispute", txID), body, nil)
}

// ListDisputes returns the admin dispute queue.
func (c *Client) ListDisputes(ctx context.Context) ([]model.Dispute, error) {
	var list []model.Dispute
	if err := c.get(ctx, "/disputes/admin/disputes", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ResolveDispute settles a dispute in favor of one party.
func (c *Client) ResolveDispute(ctx context.Context, id int64, resolution model.DisputeResolution, feedback string) error {
	if resolution != model.ResolveForUser && resolution != model.ResolveForAdvertiser {
		return &ValidationError{Field: "resolution", Message: fmt.Sprintf("unknown resolution %q", resolution)}
	}
	body := map[string]string{"resolution": string(resolution), "feedback": feedback}
	return c.post(ctx, fmt.Sprintf("/disputes/admin/disputes/%d/resolve", id), body, nil)
}
