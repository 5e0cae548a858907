package api

import (
	"context"

	"github.com/nhle/taskflow/internal/model"
)

// ListTransactions returns the user's ledger.
func (c *Client) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := c.get(ctx, "/transactions", &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// Withdraw debits amount from the balance through the transactions endpoint.
func (c *Client) Withdraw(ctx context.Context, amount float64) (*model.Transaction, error) {
	var tx model.Transaction
	if err := c.post(ctx, "/transactions/withdraw", map[string]float64{"amount": amount}, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// CreateWithdrawal files a payout request.
func (c *Client) CreateWithdrawal(ctx context.Context, req model.WithdrawalRequest) (*model.Withdrawal, error) {
	var wd model.Withdrawal
	if err := c.post(ctx, "/withdrawals", req, &wd); err != nil {
		return nil, err
	}
	return &wd, nil
}

// ListWithdrawals returns the user's payout requests.
func (c *Client) ListWithdrawals(ctx context.Context) ([]model.Withdrawal, error) {
	var list []model.Withdrawal
	if err := c.get(ctx, "/withdrawals", &list); err != nil {
		return nil, err
	}
	return list, nil
}
