package stores

import (
	"time"
)

// EventRecord is the persisted form of a table metadata event. Version is
// the primary key: the append path enforces that versions form a dense
// sequence starting at 1.
type EventRecord struct {
	// Version is the 1-based position of the event in the log.
	Version uint64 `json:"version"`

	// TableID identifies the table the event belongs to.
	TableID string `json:"table_id"`

	// EventType is the metadata event kind.
	EventType string `json:"event_type"`

	// Payload is the optional event-specific JSON body.
	Payload []byte `json:"payload,omitempty"`

	// RecordedAt is when the event was accepted into the log.
	RecordedAt time.Time `json:"recorded_at"`
}

// SimulationRecord is a persisted audit trail entry for one completed
// simulation. Simulations never mutate anything, so the record is the only
// durable trace a run leaves behind.
type SimulationRecord struct {
	// ID is the unique simulation identifier.
	ID string `json:"id"`

	// TableID identifies the audited table.
	TableID string `json:"table_id"`

	// ExpectedState is the lifecycle state derived by replay.
	ExpectedState string `json:"expected_state"`

	// LogVersion is the log version the simulation ran against.
	LogVersion uint64 `json:"log_version"`

	// Findings is the drift report encoded as JSON.
	Findings []byte `json:"findings"`

	// Decisions is the decision plan encoded as JSON.
	Decisions []byte `json:"decisions"`

	// CreatedAt is when the simulation completed.
	CreatedAt time.Time `json:"created_at"`
}
