package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/icewatch/icewatch/pkg/config"
	"github.com/icewatch/icewatch/pkg/drift"
	"github.com/icewatch/icewatch/pkg/engine"
	"github.com/icewatch/icewatch/pkg/simulate"
	"github.com/icewatch/icewatch/pkg/stores"
)

func newSimulateCommand() *cobra.Command {
	var (
		logPath     string
		dbPath      string
		icebergPath string
		policyPath  string
		packPaths   []string
		noPacks     bool
		record      bool
		failOn      string
		invariants  string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a full dry-run audit of an Iceberg table",
		Long: `Run the complete audit pipeline: replay the event log, compare the
derived state against the catalog's table metadata, classify drift, and
evaluate policy into an advisory decision plan.

The simulation is read-only end to end. The decision plan describes what an
operator or a future enforcement layer might do; icewatch itself never acts
on it.`,
		Example: `  # Audit from a JSON event log
  icewatch simulate --log events.json --iceberg metadata.json

  # Audit from the durable event log
  icewatch simulate --db icewatch.db --iceberg metadata.json

  # Use a custom policy and fail the command on critical drift
  icewatch simulate --log events.json --iceberg metadata.json \
      --policy policy.yaml --fail-on critical

  # Record the simulation in the audit trail
  icewatch simulate --db icewatch.db --iceberg metadata.json --record`,
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

			policyConfig, err := app.loadPolicy(policyPath)
			if err != nil {
				return err
			}

			opts := []simulate.Option{}
			if !noPacks {
				packs, err := app.buildPackEngine(ctx, packPaths)
				if err != nil {
					return err
				}
				opts = append(opts, simulate.WithPackEngine(packs))
			}

			registry, err := invariantRegistry(invariants)
			if err != nil {
				return err
			}

			sim := simulate.New(app.tel, opts...)
			result, err := sim.Run(ctx, events, registry, actual, policyConfig)
			if err != nil {
				return err
			}

			if record {
				if err := recordSimulation(cmd, app, dbPath, events, actual.TableUUID.String(), result); err != nil {
					return err
				}
			}

			if jsonOutput {
				if err := printJSON(result); err != nil {
					return err
				}
			} else {
				printResultSummary(cmd, result)
			}

			return checkFailOn(failOn, result.DriftReport)
		},
	}

	cmd.Flags().StringVar(&logPath, "log", "", "event log JSON file")
	cmd.Flags().StringVar(&dbPath, "db", "", "durable event log database path")
	cmd.Flags().StringVar(&icebergPath, "iceberg", "", "Iceberg table metadata JSON file (required)")
	cmd.Flags().StringVar(&policyPath, "policy", "", "policy configuration file")
	cmd.Flags().StringSliceVar(&packPaths, "policy-pack", nil, "additional Rego policy pack files")
	cmd.Flags().BoolVar(&noPacks, "no-packs", false, "skip Rego policy pack evaluation")
	cmd.Flags().BoolVar(&record, "record", false, "persist the simulation in the audit trail (requires --db)")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "exit non-zero when drift at or above this severity is found (info, warning, critical)")
	cmd.Flags().StringVar(&invariants, "invariants", "builtin", "invariant set to enforce during replay (builtin, none)")
	_ = cmd.MarkFlagRequired("iceberg")

	return cmd
}

// recordSimulation persists a completed simulation in the audit trail.
func recordSimulation(cmd *cobra.Command, app *appContext, dbPath string, events []engine.TableEvent, tableID string, result *simulate.Result) error {
	if dbPath == "" {
		return fmt.Errorf("--record requires --db")
	}

	store, err := app.openStore(cmd.Context(), dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	findings, err := json.Marshal(result.DriftReport.Findings)
	if err != nil {
		return fmt.Errorf("failed to encode findings: %w", err)
	}
	decisions, err := json.Marshal(result.DecisionPlan.Decisions)
	if err != nil {
		return fmt.Errorf("failed to encode decisions: %w", err)
	}

	return store.CreateSimulation(cmd.Context(), &stores.SimulationRecord{
		ID:            uuid.NewString(),
		TableID:       tableID,
		ExpectedState: string(result.ExpectedState),
		LogVersion:    uint64(len(events)),
		Findings:      findings,
		Decisions:     decisions,
		CreatedAt:     time.Now().UTC(),
	})
}

// printResultSummary renders a human-readable audit summary.
func printResultSummary(cmd *cobra.Command, result *simulate.Result) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Expected state: %s\n", result.ExpectedState)

	if result.DriftReport.IsClean() {
		fmt.Fprintln(out, "Drift:          none")
	} else {
		fmt.Fprintf(out, "Drift:          %d finding(s)\n", len(result.DriftReport.Findings))
		for _, f := range result.DriftReport.Findings {
			fmt.Fprintf(out, "  [%s] %s: %s\n", f.Severity, f.Type, f.Message)
		}
	}

	if result.DecisionPlan.IsEmpty() {
		fmt.Fprintln(out, "Plan:           no action")
	} else {
		fmt.Fprintf(out, "Plan:           %d decision(s)\n", len(result.DecisionPlan.Decisions))
		for _, d := range result.DecisionPlan.Decisions {
			fmt.Fprintf(out, "  %s <- %s (%s)\n", d.Action, d.Severity, d.Reason)
		}
	}

	for _, d := range result.PackDecisions {
		fmt.Fprintf(out, "Pack:           %s (%s)\n", d.Reason, d.Action)
	}
}

// checkFailOn turns drift at or above the threshold into a command error.
func checkFailOn(failOn string, report drift.Report) error {
	if failOn == "" {
		return nil
	}

	var threshold drift.Severity
	switch failOn {
	case "info":
		threshold = drift.SeverityInfo
	case "warning":
		threshold = drift.SeverityWarning
	case "critical":
		threshold = drift.SeverityCritical
	default:
		return fmt.Errorf("invalid --fail-on value %q (want info, warning, or critical)", failOn)
	}

	highest, ok := report.HighestSeverity()
	if !ok {
		return nil
	}
	if highest.Rank() >= threshold.Rank() {
		return fmt.Errorf("drift at severity %s meets --fail-on=%s", highest, failOn)
	}
	return nil
}
