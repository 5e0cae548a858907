package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/ui/history"
	"github.com/nhle/taskflow/internal/wallet"
)

var (
	historyStatus   string
	disputeReason   string
	disputeEvidence string
)

func init() {
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "only show transactions with this status: completed, pending, failed")
	disputeCmd.Flags().StringVar(&disputeReason, "reason", "", "why the earning should not have failed")
	disputeCmd.Flags().StringVar(&disputeEvidence, "evidence", "", "optional supporting details or a link")
	_ = disputeCmd.MarkFlagRequired("reason")

	historyCmd.AddCommand(disputeCmd)
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show your transaction history",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var disputeCmd = &cobra.Command{
	Use:   "dispute TRANSACTION_ID",
	Short: "Dispute a failed earning from the last 24 hours",
	Args:  cobra.ExactArgs(1),
	RunE:  runDispute,
}

func runHistory(cmd *cobra.Command, args []string) error {
	status := model.TransactionStatus(strings.ToLower(strings.TrimSpace(historyStatus)))
	if !slices.Contains(history.Filters, status) {
		return fmt.Errorf("unknown status %q", historyStatus)
	}
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	txs, err := e.client.ListTransactions(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading history: %s", api.Message(err))
	}
	txs = wallet.FilterByStatus(txs, status)

	out := cmd.OutOrStdout()
	if len(txs) == 0 {
		fmt.Fprintln(out, "No transactions.")
		return nil
	}
	now := time.Now()
	w := newTable(out)
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tSTATUS\tTASK\t ")
	for _, tx := range txs {
		flag := ""
		if wallet.DisputeEligible(tx, now) {
			flag = "disputable"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, formatTime(tx.CreatedAt), tx.Type, e.money(tx.Amount), tx.Status, truncate(tx.TaskTitle, 32), flag)
	}
	return w.Flush()
}

func runDispute(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "transaction")
	if err != nil {
		return err
	}
	if strings.TrimSpace(disputeReason) == "" {
		return errors.New("--reason must not be empty")
	}
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	txs, err := e.client.ListTransactions(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading history: %s", api.Message(err))
	}
	i := slices.IndexFunc(txs, func(tx model.Transaction) bool { return tx.ID == id })
	if i < 0 {
		return fmt.Errorf("transaction %d not found", id)
	}
	if !wallet.DisputeEligible(txs[i], time.Now()) {
		return errors.New("only failed earnings from the last 24 hours can be disputed")
	}

	if err := e.client.RaiseDispute(cmd.Context(), id, strings.TrimSpace(disputeReason), strings.TrimSpace(disputeEvidence)); err != nil {
		return errors.New(api.Message(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dispute raised for transaction %d.\n", id)
	return nil
}
