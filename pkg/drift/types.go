// Package drift compares the expected table state derived by replay against
// the actual state reported by the external catalog and classifies every
// discrepancy by severity. Findings are produced here and nowhere else.
package drift

import "fmt"

// Type identifies the kind of discrepancy detected.
type Type string

const (
	// TypeUnexpectedMutation means the catalog changed while the control
	// plane believed the table was stable.
	TypeUnexpectedMutation Type = "UnexpectedMutation"

	// TypeSchemaMismatch means the catalog reports a schema the control
	// plane cannot account for.
	TypeSchemaMismatch Type = "SchemaMismatch"

	// TypeSnapshotMismatch means the catalog's snapshot lineage diverges
	// from the expected one.
	TypeSnapshotMismatch Type = "SnapshotMismatch"
)

// Severity classifies how dangerous a finding is. The order is total:
// Info < Warning < Critical.
type Severity string

const (
	// SeverityInfo is informational drift with no immediate risk.
	SeverityInfo Severity = "Info"

	// SeverityWarning is drift with potential risk.
	SeverityWarning Severity = "Warning"

	// SeverityCritical is drift that puts data correctness at risk.
	SeverityCritical Severity = "Critical"
)

// Rank maps the severity onto its position in the total order.
func (s Severity) Rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityWarning:
		return 1
	case SeverityCritical:
		return 2
	default:
		return -1
	}
}

// Validate checks if the severity is one of the closed set of values.
func (s Severity) Validate() error {
	if s.Rank() < 0 {
		return fmt.Errorf("invalid drift severity: %s", s)
	}
	return nil
}

// Finding is a single classified discrepancy. Immutable once produced.
type Finding struct {
	// Type is the kind of drift detected.
	Type Type `json:"drift_type"`

	// Severity classifies the finding.
	Severity Severity `json:"severity"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// Report is the ordered sequence of findings from one detection pass.
// An empty report means the catalog matches the derived state.
type Report struct {
	// Findings are the classified discrepancies, in detection order.
	Findings []Finding `json:"findings"`
}

// IsClean returns true when the report has no findings.
func (r Report) IsClean() bool {
	return len(r.Findings) == 0
}

// HighestSeverity returns the maximum severity present, or ("", false) for
// an empty report.
func (r Report) HighestSeverity() (Severity, bool) {
	if len(r.Findings) == 0 {
		return "", false
	}
	highest := r.Findings[0].Severity
	for _, f := range r.Findings[1:] {
		if f.Severity.Rank() > highest.Rank() {
			highest = f.Severity
		}
	}
	return highest, true
}
