package policy

import (
	"testing"

	"github.com/icewatch/icewatch/pkg/drift"
)

func report(severities ...drift.Severity) drift.Report {
	var r drift.Report
	for _, s := range severities {
		r.Findings = append(r.Findings, drift.Finding{
			Type:     drift.TypeUnexpectedMutation,
			Severity: s,
			Message:  "test finding",
		})
	}
	return r
}

func TestEvaluate_EmptyReportYieldsEmptyPlan(t *testing.T) {
	plan, err := Evaluate(drift.Report{}, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !plan.IsEmpty() {
		t.Errorf("Plan has %d decisions, want 0", len(plan.Decisions))
	}
}

func TestEvaluate_DefaultMapping(t *testing.T) {
	tests := []struct {
		severity drift.Severity
		want     Action
	}{
		{drift.SeverityInfo, ActionObserve},
		{drift.SeverityWarning, ActionAlert},
		{drift.SeverityCritical, ActionEnforce},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			plan, err := Evaluate(report(tt.severity), nil)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if len(plan.Decisions) != 1 {
				t.Fatalf("Got %d decisions, want 1", len(plan.Decisions))
			}
			d := plan.Decisions[0]
			if d.Action != tt.want {
				t.Errorf("Action = %s, want %s", d.Action, tt.want)
			}
			if d.Severity != tt.severity {
				t.Errorf("Severity = %s, want %s", d.Severity, tt.severity)
			}
			if d.Reason == "" {
				t.Error("Decision carries no reason")
			}
		})
	}
}

func TestEvaluate_OnePerFindingOrderPreserved(t *testing.T) {
	r := report(drift.SeverityWarning, drift.SeverityCritical, drift.SeverityWarning)

	plan, err := Evaluate(r, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if len(plan.Decisions) != 3 {
		t.Fatalf("Got %d decisions, want 3 (one per finding, no dedup)", len(plan.Decisions))
	}

	want := []Action{ActionAlert, ActionEnforce, ActionAlert}
	for i, d := range plan.Decisions {
		if d.Action != want[i] {
			t.Errorf("Decision %d action = %s, want %s", i, d.Action, want[i])
		}
		if d.Severity != r.Findings[i].Severity {
			t.Errorf("Decision %d severity = %s, want %s (order must match findings)",
				i, d.Severity, r.Findings[i].Severity)
		}
	}
}

func TestEvaluate_CustomConfigOverridesDefault(t *testing.T) {
	cfg := &Config{
		Rules: []Rule{
			{Severity: drift.SeverityWarning, Action: ActionObserve, Reason: "warnings tolerated here"},
		},
	}

	plan, err := Evaluate(report(drift.SeverityWarning), cfg)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if plan.Decisions[0].Action != ActionObserve {
		t.Errorf("Action = %s, want %s from custom config", plan.Decisions[0].Action, ActionObserve)
	}
	if plan.Decisions[0].Reason != "warnings tolerated here" {
		t.Errorf("Reason = %q, want custom reason", plan.Decisions[0].Reason)
	}
}

func TestEvaluate_UnmappedSeverityFails(t *testing.T) {
	cfg := &Config{
		Rules: []Rule{
			{Severity: drift.SeverityInfo, Action: ActionObserve, Reason: "info only"},
		},
	}

	if _, err := Evaluate(report(drift.SeverityCritical), cfg); err == nil {
		t.Error("Evaluate silently skipped a finding with no matching rule")
	}
}

func TestConfig_LookupFirstMatchWins(t *testing.T) {
	cfg := &Config{
		Rules: []Rule{
			{Severity: drift.SeverityInfo, Action: ActionObserve, Reason: "first"},
			{Severity: drift.SeverityInfo, Action: ActionAlert, Reason: "second"},
		},
	}

	rule, ok := cfg.Lookup(drift.SeverityInfo)
	if !ok {
		t.Fatal("Lookup missed a present severity")
	}
	if rule.Reason != "first" {
		t.Errorf("Lookup returned %q, want first match", rule.Reason)
	}
}

func TestDefaultConfig_CoversAllSeverities(t *testing.T) {
	cfg := DefaultConfig()
	for _, s := range []drift.Severity{drift.SeverityInfo, drift.SeverityWarning, drift.SeverityCritical} {
		if _, ok := cfg.Lookup(s); !ok {
			t.Errorf("DefaultConfig has no rule for %s", s)
		}
	}
}
