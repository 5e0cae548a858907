package api

import (
	"context"
	"errors"
	"strings"

	"github.com/nhle/taskflow/internal/model"
)

// Registration is the sign-up payload.
type Registration struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Country      string `json:"country"`
	ReferralCode string `json:"referral_code,omitempty"`
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthResult, error) {
	var result model.AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/auth/login", body, &result); err != nil {
		return nil, err
	}
	if result.Token == "" || result.User.ID == 0 {
		return nil, errors.New("login: invalid response format")
	}
	return &result, nil
}

// Register creates an account. The country code is sent upper-cased.
func (c *Client) Register(ctx context.Context, reg Registration) (*model.AuthResult, error) {
	reg.Country = strings.ToUpper(strings.TrimSpace(reg.Country))
	var result model.AuthResult
	if err := c.post(ctx, "/auth/register", reg, &result); err != nil {
		return nil, err
	}
	if result.Token == "" || result.User.ID == 0 {
		return nil, errors.New("register: invalid response format")
	}
	return &result, nil
}

// Logout ends the session server-side. Callers clear local state
// whether or not this succeeds.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/auth/logout", nil, nil)
}

// RefreshToken asks the backend for a fresh token.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	var result struct {
		Token string `json:"token"`
	}
	if err := c.post(ctx, "/auth/refresh", nil, &result); err != nil {
		return "", err
	}
	if result.Token == "" {
		return "", errors.New("refresh: invalid response format")
	}
	return result.Token, nil
}
