package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/icewatch/icewatch/pkg/engine"
)

func newReplayCommand() *cobra.Command {
	var (
		logPath    string
		dbPath     string
		showEvents bool
		invariants string
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the event log and print the derived state",
		Long: `Replay folds the full event log through the lifecycle state machine and
prints the derived state. Replay is deterministic: the same log always
yields the same state or the same first failure.`,
		Example: `  # Replay a JSON event log
  icewatch replay --log events.json

  # Replay the durable log and list every event
  icewatch replay --db icewatch.db --events`,
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

			registry, err := invariantRegistry(invariants)
			if err != nil {
				return err
			}

			state, err := engine.ReplayEvents(events, registry)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(map[string]interface{}{
					"expected_state": state,
					"log_version":    len(events),
				})
			}

			out := cmd.OutOrStdout()
			if showEvents {
				for _, ev := range events {
					fmt.Fprintf(out, "v%d  %s  %s\n", ev.Version, ev.Type, ev.TableID)
				}
			}
			fmt.Fprintf(out, "Replayed %d event(s), expected state: %s\n", len(events), state)
			return nil
		},
	}

	cmd.Flags().StringVar(&logPath, "log", "", "event log JSON file")
	cmd.Flags().StringVar(&dbPath, "db", "", "durable event log database path")
	cmd.Flags().BoolVar(&showEvents, "events", false, "list every event before the final state")
	cmd.Flags().StringVar(&invariants, "invariants", "builtin", "invariant set to enforce during replay (builtin, none)")

	return cmd
}
