package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/icewatch/icewatch/pkg/config"
	"github.com/icewatch/icewatch/pkg/engine"
	"github.com/icewatch/icewatch/pkg/simulate"
)

func newWatchCommand() *cobra.Command {
	var (
		logPath     string
		dbPath      string
		icebergPath string
		policyPath  string
		interval    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-audit whenever the table metadata file changes",
		Long: `Watch the Iceberg metadata file and re-run the audit pipeline whenever it
is rewritten. Each run is a fresh, independent simulation; the watcher
holds no state between runs. Runs until interrupted.`,
		Example: `  # Watch catalog metadata against a JSON event log
  icewatch watch --log events.json --iceberg metadata.json

  # Watch against the durable log
  icewatch watch --db icewatch.db --iceberg metadata.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.shutdown(context.Background())

			if app.cfg.Metrics.Enabled {
				go func() {
					if err := app.tel.Metrics.Serve(); err != nil {
						app.tel.Logger.WithError(err).Error("Metrics endpoint failed")
					}
				}()
			}

			policyConfig, err := app.loadPolicy(policyPath)
			if err != nil {
				return err
			}
			packs, err := app.buildPackEngine(ctx, nil)
			if err != nil {
				return err
			}
			sim := simulate.New(app.tel, simulate.WithPackEngine(packs))

			runOnce := func() {
				events, err := app.loadEvents(ctx, logPath, dbPath)
				if err != nil {
					app.tel.Logger.WithError(err).Error("Failed to load event log")
					return
				}
				actual, err := config.LoadIcebergState(icebergPath)
				if err != nil {
					app.tel.Logger.WithError(err).Error("Failed to load table metadata")
					return
				}

				result, err := sim.Run(ctx, events, engine.BuiltinRegistry(), actual, policyConfig)
				if err != nil {
					app.tel.Logger.WithError(err).Error("Audit failed")
					return
				}

				if jsonOutput {
					_ = printJSON(result)
				} else {
					printResultSummary(cmd, result)
					fmt.Fprintln(cmd.OutOrStdout())
				}
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			defer watcher.Close()

			if err := watcher.Add(icebergPath); err != nil {
				return fmt.Errorf("failed to watch %s: %w", icebergPath, err)
			}

			app.tel.Logger.WithField("path", icebergPath).Info("Watching table metadata")
			runOnce()

			// Debounce rapid rewrites: catalogs replace metadata files with
			// a write-then-rename, which arrives as several events.
			var debounce *time.Timer
			for {
				select {
				case <-ctx.Done():
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
						continue
					}
					app.tel.Logger.WithField("op", event.Op.String()).Debug("Metadata file changed")

					if debounce != nil {
						debounce.Stop()
					}
					debounce = time.AfterFunc(interval, runOnce)

					// A rename replaces the inode; re-add the path.
					if event.Op&fsnotify.Rename != 0 {
						_ = watcher.Add(icebergPath)
					}

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					app.tel.Logger.WithError(err).Warn("Watcher error")
				}
			}
		},
	}

	cmd.Flags().StringVar(&logPath, "log", "", "event log JSON file")
	cmd.Flags().StringVar(&dbPath, "db", "", "durable event log database path")
	cmd.Flags().StringVar(&icebergPath, "iceberg", "", "Iceberg table metadata JSON file (required)")
	cmd.Flags().StringVar(&policyPath, "policy", "", "policy configuration file")
	cmd.Flags().DurationVar(&interval, "debounce", 500*time.Millisecond, "delay before re-auditing after a change")
	_ = cmd.MarkFlagRequired("iceberg")

	return cmd
}
