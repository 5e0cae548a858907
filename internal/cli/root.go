// Package cli implements the TaskFlow command-line interface using Cobra.
//
// Running taskflow without a subcommand opens the terminal UI. The
// subcommands cover the same flows for scripted use.
package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/app"
	"github.com/nhle/taskflow/internal/model"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "taskflow",
	Short: "TaskFlow: earn from micro-tasks in your terminal",
	Long: `TaskFlow is a terminal client for the TaskFlow task marketplace.

Browse and complete paid tasks, track your wallet, read notifications and,
with the right account, review submissions or run advertiser campaigns.

Run without arguments to open the interactive UI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "path to the configuration file")
}

// Execute runs the root command.
func Execute(version string) {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	p := tea.NewProgram(app.New(e.deps()), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
