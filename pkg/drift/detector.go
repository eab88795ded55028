package drift

import (
	"fmt"

	"github.com/icewatch/icewatch/pkg/adapters/iceberg"
	"github.com/icewatch/icewatch/pkg/engine"
)

// Detect compares the replay-derived expected state with the catalog's
// actual state and returns the classified findings. The rules are
// independent, not mutually exclusive, and each fires at most once per
// call. Detection is pure: it never mutates its inputs and never talks to
// the catalog.
func Detect(expected engine.TableState, actual iceberg.TableState) Report {
	var findings []Finding

	// A snapshot in the catalog while the control plane believes the table
	// is stable means someone committed behind its back.
	if expected == engine.StateActive && actual.CurrentSnapshotID != nil {
		findings = append(findings, Finding{
			Type:     TypeUnexpectedMutation,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("table snapshot %d present in catalog while expected state is %s",
				*actual.CurrentSnapshotID, engine.StateActive),
		})
	}

	// Negative schema ids are structurally invalid in Iceberg metadata.
	if actual.CurrentSchemaID < 0 {
		findings = append(findings, Finding{
			Type:     TypeSchemaMismatch,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("catalog reports invalid schema id %d", actual.CurrentSchemaID),
		})
	}

	return Report{Findings: findings}
}
