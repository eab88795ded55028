package policy

import (
	"fmt"

	"github.com/icewatch/icewatch/pkg/drift"
)

// Action is the intended remediation for a drift finding. Actions are never
// executed: icewatch runs dry-run only and the plan is purely advisory.
type Action string

const (
	// ActionObserve logs the finding, no escalation.
	ActionObserve Action = "Observe"

	// ActionAlert notifies operators or governance systems.
	ActionAlert Action = "Alert"

	// ActionEnforce would block or roll back in an enforcement mode.
	ActionEnforce Action = "Enforce"
)

// Validate checks if the action is one of the closed set of values.
func (a Action) Validate() error {
	switch a {
	case ActionObserve, ActionAlert, ActionEnforce:
		return nil
	default:
		return fmt.Errorf("invalid policy action: %s", a)
	}
}

// Rule maps one drift severity onto an intended action.
type Rule struct {
	// Severity is the drift severity this rule handles.
	Severity drift.Severity `json:"severity" yaml:"severity" validate:"required"`

	// Action is the intended response.
	Action Action `json:"action" yaml:"action" validate:"required"`

	// Reason is the human-readable justification recorded on decisions.
	Reason string `json:"reason" yaml:"reason" validate:"required"`
}

// Config is the severity-to-action rule table. When several rules name the
// same severity the first one wins, matching lookup order in files.
type Config struct {
	// Rules are the configured mappings.
	Rules []Rule `json:"rules" yaml:"rules" validate:"required,min=1,dive"`
}

// Lookup returns the first rule matching the severity.
func (c *Config) Lookup(severity drift.Severity) (Rule, bool) {
	for _, r := range c.Rules {
		if r.Severity == severity {
			return r, true
		}
	}
	return Rule{}, false
}

// DefaultConfig returns the built-in policy used when no configuration is
// supplied: Info observes, Warning alerts, Critical would enforce.
func DefaultConfig() *Config {
	return &Config{
		Rules: []Rule{
			{
				Severity: drift.SeverityInfo,
				Action:   ActionObserve,
				Reason:   "informational drift, no action required",
			},
			{
				Severity: drift.SeverityWarning,
				Action:   ActionAlert,
				Reason:   "warning-level drift, operator attention recommended",
			},
			{
				Severity: drift.SeverityCritical,
				Action:   ActionEnforce,
				Reason:   "critical drift detected, enforcement would be required",
			},
		},
	}
}

// Decision is the intended action for a single drift finding.
type Decision struct {
	// Severity is the severity of the finding that produced this decision.
	Severity drift.Severity `json:"severity"`

	// Action is the intended response.
	Action Action `json:"action"`

	// Reason explains why this action was chosen.
	Reason string `json:"reason"`
}

// Plan is the ordered sequence of decisions, one per drift finding,
// preserving finding order. It is advisory output, never executed.
type Plan struct {
	// Decisions are the intended actions in finding order.
	Decisions []Decision `json:"decisions"`
}

// IsEmpty returns true when the plan contains no decisions.
func (p Plan) IsEmpty() bool {
	return len(p.Decisions) == 0
}
