// Package simulate runs the full icewatch pipeline in dry-run mode:
// log -> replay -> drift detection -> policy evaluation -> decision plan.
// A simulation never mutates its inputs and never touches the catalog, so
// the same inputs can be re-run any number of times with identical results.
package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/icewatch/icewatch/pkg/adapters/iceberg"
	"github.com/icewatch/icewatch/pkg/drift"
	"github.com/icewatch/icewatch/pkg/engine"
	"github.com/icewatch/icewatch/pkg/policy"
	"github.com/icewatch/icewatch/pkg/telemetry"
)

// Pipeline stage names used in telemetry.
const (
	StageReplay   = "replay"
	StageDetect   = "detect"
	StageEvaluate = "evaluate"
)

// Result is the complete output of one simulation run. It is either fully
// populated or not produced at all; there are no partial results.
type Result struct {
	// ExpectedState is the lifecycle state derived by replay.
	ExpectedState engine.TableState `json:"expected_state"`

	// DriftReport lists classified discrepancies against the catalog.
	DriftReport drift.Report `json:"drift_report"`

	// DecisionPlan is the intended (never executed) remediation plan.
	DecisionPlan policy.Plan `json:"decision_plan"`

	// PackDecisions are advisory decisions added by Rego policy packs,
	// kept separate from the rule-table plan.
	PackDecisions []policy.Decision `json:"pack_decisions,omitempty"`
}

// Error wraps a stage failure with enough context to tell which stage
// aborted the pipeline.
type Error struct {
	// Stage is the pipeline stage that failed.
	Stage string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("simulation failed at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Simulator executes simulations with shared telemetry. The zero simulator
// is not usable; construct with New.
type Simulator struct {
	tel   *telemetry.Telemetry
	packs *policy.PackEngine
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithPackEngine attaches a Rego policy pack engine. Pack decisions are
// advisory and appended to the result without touching the rule-table plan.
func WithPackEngine(packs *policy.PackEngine) Option {
	return func(s *Simulator) {
		s.packs = packs
	}
}

// New creates a simulator using the given telemetry.
func New(tel *telemetry.Telemetry, opts ...Option) *Simulator {
	s := &Simulator{tel: tel}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the full pipeline over an already-materialized event
// sequence. A nil policyConfig selects the built-in default policy. Any
// stage failure aborts the run with a single terminal *Error.
func (s *Simulator) Run(
	ctx context.Context,
	events []engine.TableEvent,
	invariants *engine.InvariantRegistry,
	actual iceberg.TableState,
	policyConfig *policy.Config,
) (*Result, error) {
	simulationID := uuid.NewString()
	logger := s.tel.Logger.NewComponentLogger("simulate").WithSimulationID(simulationID)
	metrics := s.tel.Metrics

	ctx, span := s.tel.Tracer.StartSimulationSpan(ctx, simulationID, actual.TableUUID.String())
	defer span.End()

	metrics.RecordSimulationStarted()
	logger.Debugf("Starting simulation over %d events", len(events))

	// Stage 1: derive expected state.
	expected, err := s.replayStage(ctx, events, invariants)
	if err != nil {
		s.fail(span, metrics, logger, err)
		return nil, err
	}

	// Stage 2: detect drift.
	report := s.detectStage(ctx, expected, actual)

	// Stage 3: evaluate policy.
	plan, packDecisions, err := s.evaluateStage(ctx, expected, report, policyConfig)
	if err != nil {
		s.fail(span, metrics, logger, err)
		return nil, err
	}

	span.SetAttributes(
		telemetry.AttrExpectedState.String(string(expected)),
		telemetry.AttrDriftFindings.Int(len(report.Findings)),
		telemetry.AttrDecisions.Int(len(plan.Decisions)),
	)
	if highest, ok := report.HighestSeverity(); ok {
		span.SetAttributes(telemetry.AttrDriftSeverity.String(string(highest)))
	}
	telemetry.RecordSuccess(span)
	metrics.RecordSimulationCompleted("ok")

	logger.Infof("Simulation complete: state=%s findings=%d decisions=%d",
		expected, len(report.Findings), len(plan.Decisions))

	return &Result{
		ExpectedState: expected,
		DriftReport:   report,
		DecisionPlan:  plan,
		PackDecisions: packDecisions,
	}, nil
}

// RunLog is Run over a metadata log backed by a store.
func (s *Simulator) RunLog(
	ctx context.Context,
	log *engine.MetadataLog,
	invariants *engine.InvariantRegistry,
	actual iceberg.TableState,
	policyConfig *policy.Config,
) (*Result, error) {
	events, err := log.Events()
	if err != nil {
		return nil, &Error{Stage: StageReplay, Err: err}
	}
	return s.Run(ctx, events, invariants, actual, policyConfig)
}

func (s *Simulator) replayStage(
	ctx context.Context,
	events []engine.TableEvent,
	invariants *engine.InvariantRegistry,
) (engine.TableState, error) {
	_, span := s.tel.Tracer.StartStageSpan(ctx, StageReplay)
	defer span.End()
	start := time.Now()

	expected, err := engine.ReplayEvents(events, invariants)
	s.tel.Metrics.RecordStageDuration(StageReplay, time.Since(start))
	if err != nil {
		telemetry.RecordError(span, err)
		s.tel.Metrics.RecordReplayError(replayErrorKind(err))
		return "", &Error{Stage: StageReplay, Err: err}
	}

	s.tel.Metrics.RecordEventsReplayed(len(events))
	telemetry.RecordSuccess(span)
	return expected, nil
}

func (s *Simulator) detectStage(
	ctx context.Context,
	expected engine.TableState,
	actual iceberg.TableState,
) drift.Report {
	_, span := s.tel.Tracer.StartStageSpan(ctx, StageDetect)
	defer span.End()
	start := time.Now()

	report := drift.Detect(expected, actual)
	s.tel.Metrics.RecordStageDuration(StageDetect, time.Since(start))

	for _, f := range report.Findings {
		s.tel.Metrics.RecordDriftFinding(string(f.Type), string(f.Severity))
	}
	telemetry.RecordSuccess(span)
	return report
}

func (s *Simulator) evaluateStage(
	ctx context.Context,
	expected engine.TableState,
	report drift.Report,
	policyConfig *policy.Config,
) (policy.Plan, []policy.Decision, error) {
	stageCtx, span := s.tel.Tracer.StartStageSpan(ctx, StageEvaluate)
	defer span.End()
	start := time.Now()
	defer func() {
		s.tel.Metrics.RecordStageDuration(StageEvaluate, time.Since(start))
	}()

	plan, err := policy.Evaluate(report, policyConfig)
	if err != nil {
		telemetry.RecordError(span, err)
		return policy.Plan{}, nil, &Error{Stage: StageEvaluate, Err: err}
	}
	for _, d := range plan.Decisions {
		s.tel.Metrics.RecordPolicyDecision(string(d.Action))
	}

	var packDecisions []policy.Decision
	if s.packs != nil {
		packDecisions, err = s.packs.Evaluate(stageCtx, policy.PackInput{
			ExpectedState: expected,
			Report:        report,
		})
		if err != nil {
			telemetry.RecordError(span, err)
			return policy.Plan{}, nil, &Error{Stage: StageEvaluate, Err: err}
		}
	}

	telemetry.RecordSuccess(span)
	return plan, packDecisions, nil
}

func (s *Simulator) fail(span trace.Span, metrics *telemetry.Metrics, logger *telemetry.Logger, err error) {
	telemetry.RecordError(span, err)
	metrics.RecordSimulationCompleted("error")
	logger.WithError(err).Error("Simulation aborted")
}

// replayErrorKind maps a replay failure onto a metrics label.
func replayErrorKind(err error) string {
	switch {
	case engine.IsIllegalTransition(err):
		return "illegal_transition"
	case engine.IsInvariantViolation(err):
		return "invariant_violation"
	default:
		return "load"
	}
}
