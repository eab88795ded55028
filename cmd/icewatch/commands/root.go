package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "icewatch",
		Short: "icewatch - Iceberg table drift auditor",
		Long: `icewatch audits Apache Iceberg tables without ever touching them.

It replays an append-only log of table metadata events through a
deterministic state machine, compares the derived state against what the
catalog actually reports, classifies any divergence, and emits an advisory
decision plan. Nothing is ever executed against the table.

Features:
  - Append-only event log with compare-and-swap versioning
  - Deterministic replay with pluggable invariants
  - Drift detection against Iceberg table metadata
  - Severity-to-action policy engine plus Rego policy packs
  - Durable SQLite-backed log and simulation audit trail`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newSimulateCommand())
	rootCmd.AddCommand(newReplayCommand())
	rootCmd.AddCommand(newDriftCommand())
	rootCmd.AddCommand(newPolicyCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newLogCommand())

	return rootCmd
}
