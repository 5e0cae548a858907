package cli

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/api"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/ui/login"
)

var (
	loginEmail    string
	loginPassword string

	registerName     string
	registerCountry  string
	registerReferral string
)

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when omitted)")

	registerCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name")
	registerCmd.Flags().StringVar(&registerCountry, "country", login.Countries[0], "country code ("+strings.Join(login.Countries, ", ")+")")
	registerCmd.Flags().StringVar(&registerReferral, "referral", "", "referral code")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session in the system keyring",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

// promptCredentials asks for whatever the flags left empty.
func promptCredentials() error {
	var fields []huh.Field
	if loginEmail == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(&loginEmail))
	}
	if loginPassword == "" {
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&loginPassword))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

func runLogin(cmd *cobra.Command, args []string) error {
	if err := promptCredentials(); err != nil {
		return err
	}
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.client.Login(cmd.Context(), strings.TrimSpace(loginEmail), loginPassword)
	if err != nil {
		return fmt.Errorf("login failed: %s", api.Message(err))
	}
	return e.startSession(cmd, res)
}

func runRegister(cmd *cobra.Command, args []string) error {
	if !slices.Contains(login.Countries, strings.ToUpper(registerCountry)) {
		return fmt.Errorf("unsupported country %q", registerCountry)
	}
	if strings.TrimSpace(registerName) == "" {
		return fmt.Errorf("--name is required")
	}
	if err := promptCredentials(); err != nil {
		return err
	}
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.client.Register(cmd.Context(), api.Registration{
		Name:         strings.TrimSpace(registerName),
		Email:        strings.TrimSpace(loginEmail),
		Password:     loginPassword,
		Country:      registerCountry,
		ReferralCode: strings.TrimSpace(registerReferral),
	})
	if err != nil {
		return fmt.Errorf("registration failed: %s", api.Message(err))
	}
	return e.startSession(cmd, res)
}

// startSession stores the session and registers this device for push.
func (e *env) startSession(cmd *cobra.Command, res *model.AuthResult) error {
	if err := e.session.Begin(res.Token, res.User); err != nil {
		return err
	}
	if e.deviceToken != "" {
		if err := e.client.RegisterDeviceToken(cmd.Context(), e.deviceToken); err != nil {
			e.logger.Warn("registering device token", slog.Any("error", err))
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", res.User.Name, res.User.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	if !e.session.SignedIn() {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	}
	if err := e.client.Logout(cmd.Context()); err != nil {
		e.logger.Warn("backend logout", slog.Any("error", err))
	}
	e.session.Invalidate()
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}
