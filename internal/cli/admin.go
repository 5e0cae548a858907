package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/model"
)

var (
	broadcastTitle   string
	broadcastMessage string
	broadcastURL     string
	notifyUsers      []string
)

func init() {
	broadcastCmd.Flags().StringVar(&broadcastTitle, "title", "", "notification title")
	broadcastCmd.Flags().StringVar(&broadcastMessage, "message", "", "notification body")
	broadcastCmd.Flags().StringVar(&broadcastURL, "url", "", "optional link opened from the notification")
	broadcastCmd.Flags().StringSliceVar(&notifyUsers, "users", nil, "send only to these user ids instead of everyone")
	_ = broadcastCmd.MarkFlagRequired("title")
	_ = broadcastCmd.MarkFlagRequired("message")

	adminCmd.AddCommand(adminStatsCmd, adminWithdrawalsCmd, processWithdrawalCmd, adminIDChecksCmd, verifyUserCmd, broadcastCmd)
	rootCmd.AddCommand(adminCmd)
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrator tools",
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show platform totals",
	Args:  cobra.NoArgs,
	RunE:  runAdminStats,
}

var adminWithdrawalsCmd = &cobra.Command{
	Use:   "withdrawals",
	Short: "List payout requests waiting for review",
	Args:  cobra.NoArgs,
	RunE:  runAdminWithdrawals,
}

var processWithdrawalCmd = &cobra.Command{
	Use:       "process-withdrawal ID approve|reject",
	Short:     "Approve or reject a payout request",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"approve", "reject"},
	RunE:      runProcessWithdrawal,
}

var adminIDChecksCmd = &cobra.Command{
	Use:   "id-checks",
	Short: "List government ID uploads waiting for review",
	Args:  cobra.NoArgs,
	RunE:  runAdminIDChecks,
}

var verifyUserCmd = &cobra.Command{
	Use:   "verify-user USER_ID approve|reject",
	Short: "Approve or reject a user's government ID",
	Args:  cobra.ExactArgs(2),
	RunE:  runVerifyUser,
}

var broadcastCmd = &cobra.Command{
	Use:   "broadcast",
	Short: "Send a notification to every user, or to --users",
	Args:  cobra.NoArgs,
	RunE:  runBroadcast,
}

// adminEnv is signedIn plus an admin check on the stored identity.
func adminEnv(ctx context.Context) (*env, error) {
	e, err := signedIn(ctx)
	if err != nil {
		return nil, err
	}
	if !e.session.User().IsAdmin {
		e.Close()
		return nil, errors.New("this command requires an admin account")
	}
	return e, nil
}

// parseDecision maps approve/reject to a review status.
func parseDecision(arg string) (model.ReviewStatus, error) {
	switch strings.ToLower(arg) {
	case "approve", "approved":
		return model.ReviewApproved, nil
	case "reject", "rejected":
		return model.ReviewRejected, nil
	}
	return "", fmt.Errorf("decision must be approve or reject, got %q", arg)
}

func runAdminStats(cmd *cobra.Command, args []string) error {
	e, err := adminEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	stats, err := e.client.AdminStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading stats: %s", api.Message(err))
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintf(w, "Users:\t%d\n", stats.Users)
	fmt.Fprintf(w, "Tasks:\t%d\n", stats.Tasks)
	fmt.Fprintf(w, "Pending submissions:\t%d\n", stats.PendingSubmissions)
	fmt.Fprintf(w, "Total earnings:\t%s\n", e.money(stats.TotalEarnings))
	return w.Flush()
}

func runAdminWithdrawals(cmd *cobra.Command, args []string) error {
	e, err := adminEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	list, err := e.client.PendingWithdrawals(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading withdrawals: %s", api.Message(err))
	}
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No pending withdrawals.")
		return nil
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tUSER\tAMOUNT\tMETHOD\tDETAILS\tREQUESTED")
	for _, wd := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			wd.ID, wd.UserEmail, e.money(wd.Amount), wd.PaymentMethod, truncate(wd.PaymentDetails, 32), formatTime(wd.CreatedAt))
	}
	return w.Flush()
}

func runProcessWithdrawal(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "withdrawal")
	if err != nil {
		return err
	}
	status, err := parseDecision(args[1])
	if err != nil {
		return err
	}
	e, err := adminEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.client.ProcessWithdrawal(cmd.Context(), id, status); err != nil {
		return errors.New(api.Message(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Withdrawal %d %s.\n", id, status)
	return nil
}

func runAdminIDChecks(cmd *cobra.Command, args []string) error {
	e, err := adminEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	users, err := e.client.PendingIDVerifications(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading ID checks: %s", api.Message(err))
	}
	out := cmd.OutOrStdout()
	if len(users) == 0 {
		fmt.Fprintln(out, "No pending ID checks.")
		return nil
	}
	w := newTable(out)
	fmt.Fprintln(w, "USER\tNAME\tEMAIL\tCOUNTRY\tDOCUMENT")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Country, u.GovernmentIDURL)
	}
	return w.Flush()
}

func runVerifyUser(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "user")
	if err != nil {
		return err
	}
	status, err := parseDecision(args[1])
	if err != nil {
		return err
	}
	e, err := adminEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.client.VerifyUserID(cmd.Context(), id, status); err != nil {
		return errors.New(api.Message(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Government ID of user %d %s.\n", id, status)
	return nil
}

func runBroadcast(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(notifyUsers))
	for _, s := range notifyUsers {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", s)
		}
		ids = append(ids, id)
	}
	e, err := adminEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	if len(ids) > 0 {
		err = e.client.SendNotification(ctx, model.NewTargetedNotification(ids, broadcastTitle, broadcastMessage))
	} else {
		err = e.client.BroadcastNotification(ctx, model.Broadcast{Title: broadcastTitle, Message: broadcastMessage, URL: broadcastURL})
	}
	if err != nil {
		return errors.New(api.Message(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Notification sent.")
	return nil
}
