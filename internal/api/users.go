package api

import (
	"context"

	"github.com/nhle/taskflow/internal/model"
)

// Profile fetches the signed-in user's account record.
func (c *Client) Profile(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	if err := c.get(ctx, "/users/profile", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile saves the non-nil fields of u and returns the new profile.
func (c *Client) UpdateProfile(ctx context.Context, u model.ProfileUpdate) (*model.Profile, error) {
	var p model.Profile
	if err := c.put(ctx, "/users/profile", u, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ChangePassword updates the password through the profile endpoint.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	if next == "" {
		return &ValidationError{Field: "password", Message: "New password is required"}
	}
	return c.put(ctx, "/users/profile", model.ProfileUpdate{
		CurrentPassword: current,
		NewPassword:     next,
	}, nil)
}

// SubmitGovernmentID records an uploaded ID image for verification.
func (c *Client) SubmitGovernmentID(ctx context.Context, idURL string) error {
	if idURL == "" {
		return &ValidationError{Field: "id", Message: "Upload an ID image first"}
	}
	return c.put(ctx, "/users/id-verify", map[string]string{"governmentIdUrl": idURL}, nil)
}

// Leaderboard returns the top earners.
func (c *Client) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	if err := c.get(ctx, "/users/leaderboard", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReferralStats returns the user's referral code and earnings.
func (c *Client) ReferralStats(ctx context.Context) (*model.ReferralStats, error) {
	var s model.ReferralStats
	if err := c.get(ctx, "/referrals/stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}
