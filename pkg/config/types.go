package config

import (
	"time"

	"github.com/icewatch/icewatch/pkg/telemetry"
)

// AppConfig is the top-level icewatch application configuration, normally
// loaded from a YAML file. Everything is optional; omitted sections fall
// back to the defaults from DefaultAppConfig.
type AppConfig struct {
	// Logging configures structured log output.
	Logging LoggingSettings `json:"logging" yaml:"logging"`

	// Tracing configures OpenTelemetry trace export.
	Tracing TracingSettings `json:"tracing" yaml:"tracing"`

	// Metrics configures the Prometheus metrics endpoint.
	Metrics MetricsSettings `json:"metrics" yaml:"metrics"`

	// Store configures the durable event log database.
	Store StoreSettings `json:"store" yaml:"store"`

	// Policy configures policy evaluation.
	Policy PolicySettings `json:"policy" yaml:"policy"`
}

// LoggingSettings configures log output.
type LoggingSettings struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal"`

	// Format is the log format (console, json).
	Format string `json:"format" yaml:"format" validate:"omitempty,oneof=console json"`

	// Output is where logs are written (stdout, stderr, file path).
	Output string `json:"output" yaml:"output"`
}

// TracingSettings configures trace export.
type TracingSettings struct {
	// Enabled controls whether tracing is active.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Exporter is the trace exporter (otlp, stdout, none).
	Exporter string `json:"exporter" yaml:"exporter" validate:"omitempty,oneof=otlp stdout none"`

	// Endpoint is the OTLP collector endpoint.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// SamplingRate is the trace sampling rate (0.0 to 1.0).
	SamplingRate float64 `json:"sampling_rate" yaml:"sampling_rate" validate:"gte=0,lte=1"`

	// Insecure disables TLS for the exporter connection.
	Insecure bool `json:"insecure" yaml:"insecure"`
}

// MetricsSettings configures the metrics endpoint.
type MetricsSettings struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ListenAddress is the address for the metrics HTTP endpoint.
	ListenAddress string `json:"listen_address" yaml:"listen_address" validate:"required_if=Enabled true"`
}

// StoreSettings configures the durable event log.
type StoreSettings struct {
	// Path is the SQLite database path. Empty means in-memory only.
	Path string `json:"path" yaml:"path"`

	// ConnMaxLifetime bounds how long pooled connections live.
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// PolicySettings configures policy evaluation.
type PolicySettings struct {
	// ConfigPath points at a severity-to-action rule file. Empty selects
	// the built-in default policy.
	ConfigPath string `json:"config_path" yaml:"config_path"`

	// PackPaths lists additional Rego policy pack files to load.
	PackPaths []string `json:"pack_paths" yaml:"pack_paths"`

	// DisableBuiltinPacks turns off the built-in Rego packs.
	DisableBuiltinPacks bool `json:"disable_builtin_packs" yaml:"disable_builtin_packs"`
}

// DefaultAppConfig returns the configuration used when no file is given:
// console logs on stderr at info, tracing and metrics off, in-memory log,
// built-in policy.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Logging: LoggingSettings{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Tracing: TracingSettings{
			Exporter:     "none",
			SamplingRate: 1.0,
		},
		Metrics: MetricsSettings{
			ListenAddress: ":9090",
		},
	}
}

// TelemetryConfig converts the application configuration into the telemetry
// package's configuration.
func (c *AppConfig) TelemetryConfig(serviceVersion string) *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = serviceVersion
	if c.Logging.Level != "" {
		cfg.Logging.Level = c.Logging.Level
	}
	if c.Logging.Format != "" {
		cfg.Logging.Format = c.Logging.Format
	}
	if c.Logging.Output != "" {
		cfg.Logging.Output = c.Logging.Output
	}
	cfg.Tracing.Enabled = c.Tracing.Enabled
	if c.Tracing.Exporter != "" {
		cfg.Tracing.Exporter = c.Tracing.Exporter
	}
	cfg.Tracing.Endpoint = c.Tracing.Endpoint
	if c.Tracing.SamplingRate > 0 {
		cfg.Tracing.SamplingRate = c.Tracing.SamplingRate
	}
	cfg.Tracing.Insecure = c.Tracing.Insecure
	cfg.Metrics.Enabled = c.Metrics.Enabled
	if c.Metrics.ListenAddress != "" {
		cfg.Metrics.ListenAddress = c.Metrics.ListenAddress
	}
	return cfg
}
