package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/ui"
)

func init() {
	advertiserCmd.AddCommand(campaignsCmd, campaignStatsCmd, topupCmd)
	rootCmd.AddCommand(advertiserCmd)
}

var advertiserCmd = &cobra.Command{
	Use:     "advertiser",
	Aliases: []string{"ads"},
	Short:   "Manage advertiser campaigns and balance",
}

var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "Show your advertiser balance and campaigns",
	Args:  cobra.NoArgs,
	RunE:  runCampaigns,
}

var campaignStatsCmd = &cobra.Command{
	Use:   "stats TASK_ID",
	Short: "Show submission and budget statistics for a campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  runCampaignStats,
}

var topupCmd = &cobra.Command{
	Use:   "topup AMOUNT",
	Short: "Start a balance top-up and print the payment client secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runTopup,
}

func runCampaigns(cmd *cobra.Command, args []string) error {
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	var (
		balance   *model.AdvertiserBalance
		campaigns []model.Campaign
	)
	err = ui.All(cmd.Context(),
		func(ctx context.Context) (err error) {
			balance, err = e.client.AdvertiserBalance(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			campaigns, err = e.client.Campaigns(ctx)
			return err
		},
	)
	if err != nil {
		return fmt.Errorf("loading campaigns: %s", api.Message(err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Balance %s · On hold %s · Spent %s\n\n",
		e.money(balance.Balance), e.money(balance.HoldBalance), e.money(balance.TotalSpent))
	if len(campaigns) == 0 {
		fmt.Fprintln(out, "No campaigns yet.")
		return nil
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tREWARD\tBUDGET LEFT\tREVIEW\tTITLE")
	for _, c := range campaigns {
		status := string(c.AdminStatus)
		if status == "" {
			status = string(model.ReviewPending)
		}
		fmt.Fprintf(w, "%d\t%s\t%s / %s\t%s\t%s\n",
			c.ID, e.money(c.Reward), e.money(c.RemainingBudget), e.money(c.TotalBudget), status, truncate(c.Title, 40))
	}
	return w.Flush()
}

func runCampaignStats(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "task")
	if err != nil {
		return err
	}
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	stats, err := e.client.CampaignStats(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("loading stats: %s", api.Message(err))
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintf(w, "Submissions:\t%d\n", stats.TotalSubmissions)
	fmt.Fprintf(w, "Approved:\t%d\n", stats.ApprovedSubmissions)
	fmt.Fprintf(w, "Pending:\t%d\n", stats.PendingSubmissions)
	fmt.Fprintf(w, "Rejected:\t%d\n", stats.RejectedSubmissions)
	fmt.Fprintf(w, "Spent:\t%s\n", e.money(stats.SpentBudget))
	fmt.Fprintf(w, "Remaining:\t%s\n", e.money(stats.RemainingBudget))
	return w.Flush()
}

func runTopup(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("invalid amount %q", args[0])
	}
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	intent, err := e.client.CreatePaymentIntent(cmd.Context(), amount)
	if err != nil {
		return errors.New(api.Message(err))
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Payment intent created. Complete the card payment with this client secret:")
	fmt.Fprintln(out, intent.ClientSecret)
	return nil
}
