// Package policy maps classified drift findings onto intended remediation
// actions. The core mapping is a configurable severity-to-action rule
// table; Rego policy packs can layer additional advisory decisions on top.
// Nothing in this package executes anything: the output is a dry-run plan.
package policy

import (
	"fmt"

	"github.com/icewatch/icewatch/pkg/drift"
)

// Evaluate maps each drift finding, in report order, onto a policy
// decision. A nil config means DefaultConfig(). One decision per finding,
// no deduplication or aggregation; an empty report yields an empty plan.
//
// A severity with no matching rule is a configuration error: silently
// skipping a finding would hide drift from the decision plan.
func Evaluate(report drift.Report, config *Config) (Plan, error) {
	if config == nil {
		config = DefaultConfig()
	}

	var decisions []Decision
	for _, finding := range report.Findings {
		rule, ok := config.Lookup(finding.Severity)
		if !ok {
			return Plan{}, fmt.Errorf("no policy rule for severity %s", finding.Severity)
		}
		decisions = append(decisions, Decision{
			Severity: finding.Severity,
			Action:   rule.Action,
			Reason:   rule.Reason,
		})
	}

	return Plan{Decisions: decisions}, nil
}
