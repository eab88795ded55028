package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the icewatch pipeline. When
// metrics are disabled every recording method is a no-op.
type Metrics struct {
	config MetricsConfig

	// Simulation metrics
	simulationsStarted   prometheus.Counter
	simulationsCompleted *prometheus.CounterVec
	stageDuration        *prometheus.HistogramVec

	// Replay metrics
	eventsReplayed prometheus.Counter
	replayErrors   *prometheus.CounterVec

	// Drift metrics
	driftFindings *prometheus.CounterVec

	// Policy metrics
	policyDecisions *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		simulationsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "simulations_started_total",
				Help:      "Total number of simulations started",
			},
		),
		simulationsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "simulations_completed_total",
				Help:      "Total number of simulations completed",
			},
			[]string{"status"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		eventsReplayed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_replayed_total",
				Help:      "Total number of events folded through the state machine",
			},
		),
		replayErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replay_errors_total",
				Help:      "Total number of replay failures",
			},
			[]string{"kind"},
		),
		driftFindings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "drift_findings_total",
				Help:      "Total number of drift findings produced",
			},
			[]string{"drift_type", "severity"},
		),
		policyDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_decisions_total",
				Help:      "Total number of intended actions planned",
			},
			[]string{"action"},
		),
	}

	registry.MustRegister(
		m.simulationsStarted,
		m.simulationsCompleted,
		m.stageDuration,
		m.eventsReplayed,
		m.replayErrors,
		m.driftFindings,
		m.policyDecisions,
	)

	return m, nil
}

// RecordSimulationStarted increments the started-simulations counter.
func (m *Metrics) RecordSimulationStarted() {
	if m.simulationsStarted == nil {
		return
	}
	m.simulationsStarted.Inc()
}

// RecordSimulationCompleted records a finished simulation by outcome.
func (m *Metrics) RecordSimulationCompleted(status string) {
	if m.simulationsCompleted == nil {
		return
	}
	m.simulationsCompleted.WithLabelValues(status).Inc()
}

// RecordStageDuration records the wall time of one pipeline stage.
func (m *Metrics) RecordStageDuration(stage string, d time.Duration) {
	if m.stageDuration == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordEventsReplayed adds to the replayed-events counter.
func (m *Metrics) RecordEventsReplayed(n int) {
	if m.eventsReplayed == nil {
		return
	}
	m.eventsReplayed.Add(float64(n))
}

// RecordReplayError counts a replay failure by kind
// (illegal_transition, invariant_violation, load).
func (m *Metrics) RecordReplayError(kind string) {
	if m.replayErrors == nil {
		return
	}
	m.replayErrors.WithLabelValues(kind).Inc()
}

// RecordDriftFinding counts a drift finding by type and severity.
func (m *Metrics) RecordDriftFinding(driftType, severity string) {
	if m.driftFindings == nil {
		return
	}
	m.driftFindings.WithLabelValues(driftType, severity).Inc()
}

// RecordPolicyDecision counts an intended action.
func (m *Metrics) RecordPolicyDecision(action string) {
	if m.policyDecisions == nil {
		return
	}
	m.policyDecisions.WithLabelValues(action).Inc()
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing metrics on the configured address.
// It blocks; callers run it in a goroutine.
func (m *Metrics) Serve() error {
	if !m.config.Enabled {
		return nil
	}
	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
