package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/icewatch/icewatch/pkg/config"
	"github.com/icewatch/icewatch/pkg/drift"
	"github.com/icewatch/icewatch/pkg/engine"
)

func newDriftCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Drift detection against catalog state",
		Long: `Detect drift between the state derived from the event log and the state
the catalog actually reports. Detection is pure comparison; no policy is
evaluated and nothing is planned.`,
	}

	cmd.AddCommand(newDriftDetectCommand())

	return cmd
}

func newDriftDetectCommand() *cobra.Command {
	var (
		logPath     string
		dbPath      string
		icebergPath string
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect drift for one table",
		Example: `  # Compare a JSON event log against catalog metadata
  icewatch drift detect --log events.json --iceberg metadata.json

  # Compare the durable log, JSON output
  icewatch drift detect --db icewatch.db --iceberg metadata.json --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.shutdown(ctx)

			events, err := app.loadEvents(ctx, logPath, dbPath)
			if err != nil {
				return err
			}

			actual, err := config.LoadIcebergState(icebergPath)
			if err != nil {
				return err
			}

			expected, err := engine.ReplayEvents(events, engine.BuiltinRegistry())
			if err != nil {
				return err
			}

			report := drift.Detect(expected, actual)

			if jsonOutput {
				return printJSON(map[string]interface{}{
					"expected_state": expected,
					"drift_report":   report,
				})
			}

			out := cmd.OutOrStdout()
			if report.IsClean() {
				fmt.Fprintf(out, "No drift: table matches expected state %s\n", expected)
				return nil
			}
			fmt.Fprintf(out, "Drift detected (expected state %s):\n", expected)
			for _, f := range report.Findings {
				fmt.Fprintf(out, "  [%s] %s: %s\n", f.Severity, f.Type, f.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&logPath, "log", "", "event log JSON file")
	cmd.Flags().StringVar(&dbPath, "db", "", "durable event log database path")
	cmd.Flags().StringVar(&icebergPath, "iceberg", "", "Iceberg table metadata JSON file (required)")
	_ = cmd.MarkFlagRequired("iceberg")

	return cmd
}
