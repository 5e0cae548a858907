package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/model"
)

func init() {
	configCmd.AddCommand(configShowCmd, configSetURLCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change client settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetURLCmd = &cobra.Command{
	Use:   "set-url URL",
	Short: "Point the client at another API base URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetURL,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintf(w, "Config file:\t%s\n", configPath)
	fmt.Fprintf(w, "API base URL:\t%s\n", cfg.API.BaseURL)
	fmt.Fprintf(w, "API timeout:\t%ds\n", cfg.API.TimeoutSec)
	fmt.Fprintf(w, "API retries:\t%d\n", cfg.API.MaxRetries)
	fmt.Fprintf(w, "Upload URL:\t%s\n", cfg.Upload.URL)
	fmt.Fprintf(w, "Currency:\t%s\n", cfg.Display.CurrencySymbol)
	fmt.Fprintf(w, "Poll interval:\t%ds\n", cfg.Display.PollIntervalSec)
	fmt.Fprintf(w, "Database:\t%s\n", cfg.Storage.DBPath)
	fmt.Fprintf(w, "Log file:\t%s (%s)\n", cfg.Logging.File, cfg.Logging.Level)
	endpoint := cfg.Telemetry.OTLPEndpoint
	if endpoint == "" {
		endpoint = "disabled"
	}
	fmt.Fprintf(w, "OTLP endpoint:\t%s\n", endpoint)
	return w.Flush()
}

func runConfigSetURL(cmd *cobra.Command, args []string) error {
	raw := strings.TrimRight(strings.TrimSpace(args[0]), "/")
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q: want http(s)://host/path", args[0])
	}

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.API.BaseURL = raw
	if err := model.SaveConfig(configPath, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "API base URL set to %s\n", raw)
	return nil
}
