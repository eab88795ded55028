package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/icewatch/icewatch/pkg/adapters/iceberg"
	"github.com/icewatch/icewatch/pkg/engine"
)

// LoadAppConfig reads and validates a YAML application configuration file.
// Missing fields keep their defaults from DefaultAppConfig.
func LoadAppConfig(path string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadEventLog reads an ordered JSON array of table metadata events and
// checks it is well formed: every event valid, versions dense and
// sequential starting at 1. A rejected file never reaches replay.
func LoadEventLog(path string) ([]engine.TableEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}

	var events []engine.TableEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to parse event log %s: %w", path, err)
	}

	for i, event := range events {
		if err := event.Validate(); err != nil {
			return nil, fmt.Errorf("event %d in %s: %w", i, path, err)
		}
		if expected := engine.Version(i + 1); event.Version != expected {
			return nil, fmt.Errorf("event %d in %s: %w", i, path,
				&engine.VersionConflictError{Expected: expected, Actual: event.Version})
		}
	}

	return events, nil
}

// LoadIcebergState reads an Iceberg table metadata JSON file and returns
// the normalized observed state for drift detection.
func LoadIcebergState(path string) (iceberg.TableState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return iceberg.TableState{}, fmt.Errorf("failed to read table metadata: %w", err)
	}

	metadata, err := iceberg.ParseMetadata(data)
	if err != nil {
		return iceberg.TableState{}, fmt.Errorf("failed to parse table metadata %s: %w", path, err)
	}

	return metadata.TableState().Normalize(), nil
}
