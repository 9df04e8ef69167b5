// grid-rtu-core - software RTU backend abstraction
//
// This is the main entry point for the grid-rtu-core application: a
// supervisory RTU endpoint with IEC 60870-5-104 flavoured addressing
// over a pluggable query backend (local simulator or MQTT grid fabric).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/nerrad567/grid-rtu-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

var configFlag string

var rootCmd = &cobra.Command{
	Use:     "gridrtu",
	Short:   "grid-rtu-core - software RTU over a pluggable backend",
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the RTU and serve until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return run(ctx)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration, datapoint table and database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return check(cmd.Context(), cmd.OutOrStdout())
	},
}

var (
	historyCOA   string
	historyIOA   string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent IO journal entries for a simulator datapoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return history(cmd.Context(), cmd.OutOrStdout(), historyCOA, historyIOA, historyLimit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "path to config file")
	historyCmd.Flags().StringVar(&historyCOA, "coa", "", "common address (integer or text)")
	historyCmd.Flags().StringVar(&historyIOA, "ioa", "", "information object address (integer or text)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum entries (default 50, capped at 200)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("gridrtu %s (commit: %s, built: %s)\n", version, commit, date))
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// getConfigPath returns the configuration file path. Resolution order:
// --config flag, GRIDRTU_CONFIG environment variable, default.
func getConfigPath() string {
	if configFlag != "" {
		return configFlag
	}
	if path := os.Getenv("GRIDRTU_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
