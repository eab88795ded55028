package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/icewatch/icewatch/pkg/config"
)

func newValidateCommand() *cobra.Command {
	var (
		logPath     string
		icebergPath string
		policyPath  string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate input files without running an audit",
		Long: `Validate any combination of input files: the event log, the Iceberg table
metadata, and the policy configuration. Each given file is fully loaded and
checked exactly as the audit pipeline would.`,
		Example: `  # Validate an event log
  icewatch validate --log events.json

  # Validate everything an audit would consume
  icewatch validate --log events.json --iceberg metadata.json --policy policy.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if logPath == "" && icebergPath == "" && policyPath == "" {
				return fmt.Errorf("nothing to validate: give --log, --iceberg, or --policy")
			}

			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.shutdown(cmd.Context())

			out := cmd.OutOrStdout()

			if logPath != "" {
				events, err := config.LoadEventLog(logPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Event log %s: %d event(s), well formed\n", logPath, len(events))
			}

			if icebergPath != "" {
				state, err := config.LoadIcebergState(icebergPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Table metadata %s: table %s\n", icebergPath, state.TableUUID)
			}

			if policyPath != "" {
				if _, err := app.loadPolicy(policyPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Policy %s: valid\n", policyPath)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&logPath, "log", "", "event log JSON file")
	cmd.Flags().StringVar(&icebergPath, "iceberg", "", "Iceberg table metadata JSON file")
	cmd.Flags().StringVar(&policyPath, "policy", "", "policy configuration file")

	return cmd
}
