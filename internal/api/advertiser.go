package api

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/nhle/taskflow/internal/model"
)

// AdvertiserBalance returns the advertiser's budget.
func (c *Client) AdvertiserBalance(ctx context.Context) (*model.AdvertiserBalance, error) {
	var b model.AdvertiserBalance
	if err := c.get(ctx, "/advertiser/balance", &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Campaigns lists the advertiser's tasks.
func (c *Client) Campaigns(ctx context.Context) ([]model.Campaign, error) {
	var list []model.Campaign
	if err := c.get(ctx, "/advertiser/tasks", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CampaignStats returns submission counters for one campaign.
func (c *Client) CampaignStats(ctx context.Context, taskID int64) (*model.CampaignStats, error) {
	var s model.CampaignStats
	if err := c.get(ctx, fmt.Sprintf("/advertiser/tasks/%d/stats", taskID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AdvertiserTransactions lists deposits and task payments.
func (c *Client) AdvertiserTransactions(ctx context.Context) ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := c.get(ctx, "/advertiser/transactions", &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// AdvertiserPendingSubmissions lists submissions to the advertiser's tasks.
func (c *Client) AdvertiserPendingSubmissions(ctx context.Context) ([]model.Submission, error) {
	var list []model.Submission
	if err := c.get(ctx, "/advertiser/submissions/pending", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// AdvertiserReviewSubmission approves or rejects a submission.
func (c *Client) AdvertiserReviewSubmission(ctx context.Context, submissionID int64, status model.ReviewStatus) error {
	if err := validReview(status); err != nil {
		return err
	}
	return c.put(ctx, fmt.Sprintf("/advertiser/submissions/%d/review", submissionID), map[string]string{"status": string(status)}, nil)
}

// CreateCampaign submits a new advertiser task for admin approval.
func (c *Client) CreateCampaign(ctx context.Context, in model.TaskInput) (*model.Campaign, error) {
	var camp model.Campaign
	if err := c.post(ctx, "/advertiser/tasks", in, &camp); err != nil {
		return nil, err
	}
	return &camp, nil
}

// UpdateCampaign edits an advertiser task.
func (c *Client) UpdateCampaign(ctx context.Context, taskID int64, in model.TaskInput) (*model.Campaign, error) {
	var camp model.Campaign
	if err := c.put(ctx, fmt.Sprintf("/advertiser/tasks/%d", taskID), in, &camp); err != nil {
		return nil, err
	}
	return &camp, nil
}

// CreatePaymentIntent starts a balance top-up. The amount is sent in whole
// currency units.
func (c *Client) CreatePaymentIntent(ctx context.Context, amount float64) (*model.PaymentIntent, error) {
	if amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "Enter a valid amount"}
	}
	var intent model.PaymentIntent
	body := map[string]int64{"amount": int64(math.Round(amount))}
	if err := c.post(ctx, "/advertiser/payment/create-intent", body, &intent); err != nil {
		return nil, err
	}
	if intent.ClientSecret == "" {
		return nil, errors.New("invalid response: missing client secret")
	}
	return &intent, nil
}

// AdvertiserMetadata returns the categories and countries for campaign forms.
func (c *Client) AdvertiserMetadata(ctx context.Context) (*model.AdvertiserMetadata, error) {
	var meta model.AdvertiserMetadata
	if err := c.get(ctx, "/advertiser/metadata", &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
