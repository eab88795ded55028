package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Loader reads policy configuration from disk.
type Loader struct {
	logger   zerolog.Logger
	validate *validator.Validate
}

// NewLoader creates a policy config loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger:   logger.With().Str("component", "policy-loader").Logger(),
		validate: validator.New(),
	}
}

// Load reads a policy config file. The format is chosen by extension:
// .yaml/.yml parse as YAML, anything else as JSON.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse policy config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse policy config %s: %w", path, err)
		}
	}

	if err := l.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid policy config %s: %w", path, err)
	}

	l.logger.Debug().
		Str("path", path).
		Int("rules", len(cfg.Rules)).
		Msg("Policy config loaded")

	return &cfg, nil
}

// Validate checks structural validity and value domains of a config.
func (l *Loader) Validate(cfg *Config) error {
	if err := l.validate.Struct(cfg); err != nil {
		return err
	}
	for i, rule := range cfg.Rules {
		if err := rule.Severity.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		if err := rule.Action.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}
