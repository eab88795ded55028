package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/icewatch/icewatch/pkg/config"
	"github.com/icewatch/icewatch/pkg/engine"
	"github.com/icewatch/icewatch/pkg/policy"
	"github.com/icewatch/icewatch/pkg/stores"
	"github.com/icewatch/icewatch/pkg/telemetry"
)

// appContext bundles the loaded configuration and telemetry shared by every
// command invocation.
type appContext struct {
	cfg *config.AppConfig
	tel *telemetry.Telemetry
}

// newAppContext loads the configuration file named by the global --config
// flag and builds telemetry from it. --verbose overrides the configured log
// level.
func newAppContext() (*appContext, error) {
	cfg, err := config.LoadAppConfig(configPath)
	if err != nil {
		return nil, err
	}

	telCfg := cfg.TelemetryConfig("dev")
	if verbose {
		telCfg.Logging.Level = "debug"
	}

	tel, err := telemetry.New(telCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	return &appContext{cfg: cfg, tel: tel}, nil
}

func (a *appContext) shutdown(ctx context.Context) {
	_ = a.tel.Shutdown(ctx)
}

// loadEvents reads the event sequence from either a JSON log file or the
// durable store. Exactly one of logPath and dbPath must be set.
func (a *appContext) loadEvents(ctx context.Context, logPath, dbPath string) ([]engine.TableEvent, error) {
	switch {
	case logPath != "" && dbPath != "":
		return nil, fmt.Errorf("--log and --db are mutually exclusive")
	case logPath != "":
		return config.LoadEventLog(logPath)
	case dbPath != "":
		store, err := a.openStore(ctx, dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.LoadEvents(ctx)
	default:
		return nil, fmt.Errorf("either --log or --db is required")
	}
}

// openStore opens and migrates the durable event log database.
func (a *appContext) openStore(ctx context.Context, path string) (*stores.SQLiteStore, error) {
	store, err := stores.NewSQLiteStore(stores.Config{
		Path:            path,
		ConnMaxLifetime: a.cfg.Store.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// loadPolicy resolves the effective policy configuration: an explicit flag
// wins, then the config file's policy path, then the built-in default.
func (a *appContext) loadPolicy(policyPath string) (*policy.Config, error) {
	if policyPath == "" {
		policyPath = a.cfg.Policy.ConfigPath
	}
	if policyPath == "" {
		return policy.DefaultConfig(), nil
	}

	loader := policy.NewLoader(a.tel.Logger.Zerolog())
	return loader.Load(policyPath)
}

// buildPackEngine assembles the Rego pack engine from the built-in packs
// and any extra pack files, honoring the disable switch.
func (a *appContext) buildPackEngine(ctx context.Context, extraPacks []string) (*policy.PackEngine, error) {
	paths := append([]string{}, a.cfg.Policy.PackPaths...)
	paths = append(paths, extraPacks...)

	var (
		packs *policy.PackEngine
		err   error
	)
	if a.cfg.Policy.DisableBuiltinPacks {
		packs = policy.NewEmptyPackEngine(a.tel.Logger.Zerolog())
	} else {
		packs, err = policy.NewPackEngine(a.tel.Logger.Zerolog())
		if err != nil {
			return nil, err
		}
	}

	for _, path := range paths {
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read policy pack %s: %w", path, err)
		}
		if err := packs.Add(ctx, policy.Pack{
			Name:    path,
			Rego:    string(source),
			Enabled: true,
		}); err != nil {
			return nil, fmt.Errorf("failed to load policy pack %s: %w", path, err)
		}
	}

	return packs, nil
}

// invariantRegistry resolves the --invariants flag value: "builtin" loads
// the shipped invariant set, "none" disables invariant checking.
func invariantRegistry(mode string) (*engine.InvariantRegistry, error) {
	switch mode {
	case "", "builtin":
		return engine.BuiltinRegistry(), nil
	case "none":
		return engine.NewInvariantRegistry(), nil
	default:
		return nil, fmt.Errorf("unknown invariant set %q (expected builtin or none)", mode)
	}
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
