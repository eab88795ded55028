package commands

import (
	"testing"

	"github.com/icewatch/icewatch/pkg/drift"
)

func TestInvariantRegistry(t *testing.T) {
	tests := []struct {
		mode    string
		wantLen int
		wantErr bool
	}{
		{mode: "", wantLen: 3},
		{mode: "builtin", wantLen: 3},
		{mode: "none", wantLen: 0},
		{mode: "strict", wantErr: true},
	}

	for _, tt := range tests {
		registry, err := invariantRegistry(tt.mode)
		if tt.wantErr {
			if err == nil {
				t.Errorf("invariantRegistry(%q): expected error, got nil", tt.mode)
			}
			continue
		}
		if err != nil {
			t.Errorf("invariantRegistry(%q) failed: %v", tt.mode, err)
			continue
		}
		if got := registry.Len(); got != tt.wantLen {
			t.Errorf("invariantRegistry(%q): expected %d invariants, got %d", tt.mode, tt.wantLen, got)
		}
	}
}

func TestCheckFailOn(t *testing.T) {
	warning := drift.Report{Findings: []drift.Finding{
		{Type: drift.TypeUnexpectedMutation, Severity: drift.SeverityWarning, Message: "snapshot present"},
	}}

	tests := []struct {
		name    string
		failOn  string
		report  drift.Report
		wantErr bool
	}{
		{name: "disabled", failOn: "", report: warning, wantErr: false},
		{name: "below threshold", failOn: "critical", report: warning, wantErr: false},
		{name: "at threshold", failOn: "warning", report: warning, wantErr: true},
		{name: "above threshold", failOn: "info", report: warning, wantErr: true},
		{name: "clean report", failOn: "info", report: drift.Report{}, wantErr: false},
		{name: "invalid value", failOn: "fatal", report: drift.Report{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkFailOn(tt.failOn, tt.report)
			if tt.wantErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
