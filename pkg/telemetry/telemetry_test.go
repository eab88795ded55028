package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig is invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "default passes",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing service name",
			mutate:  func(c *Config) { c.ServiceName = "" },
			wantErr: true,
		},
		{
			name: "bad exporter",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "jaeger"
			},
			wantErr: true,
		},
		{
			name: "sampling rate out of range",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "none"
				c.Tracing.SamplingRate = 2.0
			},
			wantErr: true,
		},
		{
			name: "metrics without address",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.ListenAddress = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogger_ComponentAndFields(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	child := logger.NewComponentLogger("replay").WithTableID("t-1").WithStage("replay")
	if child == nil {
		t.Fatal("Child logger is nil")
	}
}

func TestMetrics_DisabledIsNoop(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	// None of these may panic on the no-op instance.
	m.RecordSimulationStarted()
	m.RecordSimulationCompleted("ok")
	m.RecordStageDuration("replay", time.Millisecond)
	m.RecordEventsReplayed(3)
	m.RecordReplayError("illegal_transition")
	m.RecordDriftFinding("UnexpectedMutation", "Warning")
	m.RecordPolicyDecision("Alert")
}

func TestMetrics_EnabledRegisters(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{
		Enabled:       true,
		ListenAddress: "127.0.0.1:0",
		Namespace:     "icewatch_test",
	})
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	m.RecordSimulationStarted()
	m.RecordDriftFinding("SchemaMismatch", "Critical")

	if m.Handler() == nil {
		t.Error("Handler is nil on enabled metrics")
	}
}

func TestTracer_DisabledStillStartsSpans(t *testing.T) {
	tracer, err := NewTracer(TracingConfig{Enabled: false}, "icewatch", "test", "test")
	if err != nil {
		t.Fatalf("NewTracer failed: %v", err)
	}
	defer tracer.Shutdown(context.Background())

	ctx, span := tracer.StartSimulationSpan(context.Background(), "sim-1", "table-1")
	if ctx == nil || span == nil {
		t.Fatal("Disabled tracer returned nil span")
	}
	span.End()

	_, stage := tracer.StartStageSpan(ctx, "replay")
	stage.End()
}

func TestTelemetry_RoundTripThroughContext(t *testing.T) {
	tel, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())
	if FromTelemetryContext(ctx) != tel {
		t.Error("Telemetry lost through context round trip")
	}
	if FromContext(ctx) == nil {
		t.Error("Logger lost through context round trip")
	}
}
