package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/model"
)

var (
	profileName     string
	profileCountry  string
	profileBio      string
	profileTimezone string
)

func init() {
	updateProfileCmd.Flags().StringVar(&profileName, "name", "", "display name")
	updateProfileCmd.Flags().StringVar(&profileCountry, "country", "", "country code")
	updateProfileCmd.Flags().StringVar(&profileBio, "bio", "", "short bio")
	updateProfileCmd.Flags().StringVar(&profileTimezone, "timezone", "", "IANA time zone")

	profileCmd.AddCommand(showProfileCmd, updateProfileCmd, leaderboardCmd, referralsCmd, verifyIDCmd)
	rootCmd.AddCommand(profileCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show and edit your account",
	Args:  cobra.NoArgs,
	RunE:  runShowProfile,
}

var showProfileCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your account details",
	Args:  cobra.NoArgs,
	RunE:  runShowProfile,
}

var updateProfileCmd = &cobra.Command{
	Use:   "update",
	Short: "Change profile fields given as flags",
	Args:  cobra.NoArgs,
	RunE:  runUpdateProfile,
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the top earners",
	Args:  cobra.NoArgs,
	RunE:  runLeaderboard,
}

var referralsCmd = &cobra.Command{
	Use:   "referrals",
	Short: "Show your referral code and earnings",
	Args:  cobra.NoArgs,
	RunE:  runReferrals,
}

var verifyIDCmd = &cobra.Command{
	Use:   "verify-id IMAGE",
	Short: "Upload a government ID image for verification",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerifyID,
}

func runShowProfile(cmd *cobra.Command, args []string) error {
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	p, err := e.client.Profile(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading profile: %s", api.Message(err))
	}
	printProfile(e, cmd, p)
	return nil
}

func printProfile(e *env, cmd *cobra.Command, p *model.Profile) {
	role := "worker"
	if p.IsAdmin {
		role = "admin"
	}
	idStatus := p.GovernmentIDStatus
	if idStatus == "" {
		idStatus = "not submitted"
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintf(w, "Name:\t%s\n", p.Name)
	fmt.Fprintf(w, "Email:\t%s\n", p.Email)
	fmt.Fprintf(w, "Role:\t%s\n", role)
	fmt.Fprintf(w, "Country:\t%s\n", p.Country)
	fmt.Fprintf(w, "Balance:\t%s\n", e.money(p.Balance))
	fmt.Fprintf(w, "Tasks completed:\t%d\n", p.TasksCompleted)
	fmt.Fprintf(w, "Success rate:\t%s%%\n", p.SuccessRate)
	fmt.Fprintf(w, "Government ID:\t%s\n", idStatus)
	_ = w.Flush()
}

func runUpdateProfile(cmd *cobra.Command, args []string) error {
	var u model.ProfileUpdate
	set := func(flag string, v string, dst **string) {
		if cmd.Flags().Changed(flag) {
			s := strings.TrimSpace(v)
			*dst = &s
		}
	}
	set("name", profileName, &u.Name)
	set("country", profileCountry, &u.Country)
	set("bio", profileBio, &u.Bio)
	set("timezone", profileTimezone, &u.Timezone)
	if u == (model.ProfileUpdate{}) {
		return errors.New("nothing to update; pass at least one of --name, --country, --bio, --timezone")
	}

	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	p, err := e.client.UpdateProfile(cmd.Context(), u)
	if err != nil {
		return errors.New(api.Message(err))
	}
	printProfile(e, cmd, p)
	return nil
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	entries, err := e.client.Leaderboard(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading leaderboard: %s", api.Message(err))
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "#\tNAME\tEARNED\tTASKS")
	for i, entry := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", i+1, entry.Name, e.money(entry.Balance), entry.TasksCompleted)
	}
	return w.Flush()
}

func runReferrals(cmd *cobra.Command, args []string) error {
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	stats, err := e.client.ReferralStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading referrals: %s", api.Message(err))
	}
	out := cmd.OutOrStdout()
	w := newTable(out)
	fmt.Fprintf(w, "Code:\t%s\n", stats.ReferralCode)
	fmt.Fprintf(w, "Link:\t%s\n", stats.ReferralLink)
	fmt.Fprintf(w, "Referred users:\t%d\n", stats.TotalReferredUsers)
	fmt.Fprintf(w, "Referral earnings:\t%s\n", e.money(stats.TotalReferralEarnings))
	if err := w.Flush(); err != nil {
		return err
	}
	if len(stats.ReferredUsers) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	w = newTable(out)
	fmt.Fprintln(w, "USER\tJOINED\tTASKS")
	for _, u := range stats.ReferredUsers {
		fmt.Fprintf(w, "%s\t%s\t%d\n", u.Username, u.JoinedDate, u.TasksCompleted)
	}
	return w.Flush()
}

func runVerifyID(cmd *cobra.Command, args []string) error {
	e, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	url, err := e.uploader.UploadFile(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("uploading ID: %s", api.Message(err))
	}
	if err := e.client.SubmitGovernmentID(cmd.Context(), url); err != nil {
		return errors.New(api.Message(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ID submitted. Withdrawals unlock once an admin approves it.")
	return nil
}
