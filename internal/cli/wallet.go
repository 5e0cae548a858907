package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/ui"
	walletview "github.com/nhle/taskflow/internal/ui/wallet"
	"github.com/nhle/taskflow/internal/wallet"
)

var (
	withdrawAmount  float64
	withdrawMethod  string
	withdrawDetails string
)

func init() {
	withdrawCmd.Flags().Float64Var(&withdrawAmount, "amount", 0, "amount to withdraw")
	withdrawCmd.Flags().StringVar(&withdrawMethod, "method", "", "payment method: "+strings.Join(walletview.PaymentMethods, ", "))
	withdrawCmd.Flags().StringVar(&withdrawDetails, "details", "", "payout details, e.g. PayPal email or account number")
	_ = withdrawCmd.MarkFlagRequired("amount")
	_ = withdrawCmd.MarkFlagRequired("method")
	_ = withdrawCmd.MarkFlagRequired("details")

	walletCmd.AddCommand(balanceCmd, withdrawCmd, withdrawalsCmd)
	rootCmd.AddCommand(walletCmd)
}

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Show your balance and request payouts",
	Args:  cobra.NoArgs,
	RunE:  runBalance,
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show balance, monthly earnings and pending payouts",
	Args:  cobra.NoArgs,
	RunE:  runBalance,
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Request a payout (requires an approved government ID)",
	Args:  cobra.NoArgs,
	RunE:  runWithdraw,
}

var withdrawalsCmd = &cobra.Command{
	Use:   "withdrawals",
	Short: "List your payout requests",
	Args:  cobra.NoArgs,
	RunE:  runWithdrawals,
}

func runBalance(cmd *cobra.Command, args []string) error {
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	var (
		profile *model.Profile
		txs     []model.Transaction
	)
	err = ui.All(cmd.Context(),
		func(ctx context.Context) (err error) {
			profile, err = e.client.Profile(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			txs, err = e.client.ListTransactions(ctx)
			return err
		},
	)
	if err != nil {
		return fmt.Errorf("loading wallet: %s", api.Message(err))
	}

	idStatus := profile.GovernmentIDStatus
	if idStatus == "" {
		idStatus = "not submitted"
	}
	monthly := wallet.MonthlyEarnings(txs, time.Now())
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintf(w, "Balance:\t%s\n", e.money(profile.Balance))
	fmt.Fprintf(w, "This month:\t%s\n", wallet.FormatDecimal(monthly, e.cfg.Display.CurrencySymbol))
	fmt.Fprintf(w, "Pending:\t%s\n", e.money(profile.PendingEarnings))
	fmt.Fprintf(w, "Withdrawn:\t%s\n", e.money(profile.TotalWithdrawn))
	fmt.Fprintf(w, "Tasks completed:\t%d\n", profile.TasksCompleted)
	fmt.Fprintf(w, "Government ID:\t%s\n", idStatus)
	return w.Flush()
}

func runWithdraw(cmd *cobra.Command, args []string) error {
	method := strings.ToLower(strings.TrimSpace(withdrawMethod))
	if !slices.Contains(walletview.PaymentMethods, method) {
		return fmt.Errorf("unknown payment method %q", withdrawMethod)
	}
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	profile, err := e.client.Profile(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading profile: %s", api.Message(err))
	}
	req := model.WithdrawalRequest{
		Amount:         withdrawAmount,
		PaymentMethod:  method,
		PaymentDetails: withdrawDetails,
	}
	wd, err := wallet.Withdraw(cmd.Context(), profile, req, e.client)
	if errors.Is(err, wallet.ErrIDNotVerified) {
		return errors.New("withdrawals need an approved government ID; run 'taskflow profile verify-id <image>'")
	}
	if err != nil {
		return errors.New(api.Message(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Withdrawal #%d of %s requested (%s).\n", wd.ID, e.money(wd.Amount), wd.Status)
	return nil
}

func runWithdrawals(cmd *cobra.Command, args []string) error {
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	list, err := e.client.ListWithdrawals(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading withdrawals: %s", api.Message(err))
	}
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No withdrawals yet.")
		return nil
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tAMOUNT\tMETHOD\tSTATUS\tREQUESTED")
	for _, wd := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", wd.ID, e.money(wd.Amount), wd.PaymentMethod, wd.Status, formatTime(wd.CreatedAt))
	}
	return w.Flush()
}
