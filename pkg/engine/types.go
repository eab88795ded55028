package engine

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// TableID is the stable, globally unique identifier of a managed table.
// It is assigned once when the table is registered and never changes.
type TableID struct {
	uuid.UUID
}

// NewTableID generates a random table identifier.
func NewTableID() TableID {
	return TableID{UUID: uuid.New()}
}

// ParseTableID parses a table identifier from its string form.
func ParseTableID(s string) (TableID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TableID{}, fmt.Errorf("invalid table id %q: %w", s, err)
	}
	return TableID{UUID: id}, nil
}

// Version is the logical version of a table's event stream. Versions are
// strictly sequential starting at 1; version 0 means "no events yet".
type Version uint64

// EventType identifies the kind of metadata event recorded for a table.
type EventType string

const (
	// EventTableCreated records the initial creation of the table.
	EventTableCreated EventType = "TableCreated"

	// EventSchemaUpdated records a schema evolution.
	EventSchemaUpdated EventType = "SchemaUpdated"

	// EventSnapshotAdded records a new snapshot committed to the table.
	EventSnapshotAdded EventType = "SnapshotAdded"

	// EventSnapshotRemoved records a snapshot expired or rolled back.
	EventSnapshotRemoved EventType = "SnapshotRemoved"
)

// Validate checks if the event type is one of the closed set of values.
func (t EventType) Validate() error {
	switch t {
	case EventTableCreated, EventSchemaUpdated, EventSnapshotAdded, EventSnapshotRemoved:
		return nil
	default:
		return fmt.Errorf("invalid event type: %s", t)
	}
}

// IsMutation returns true for event types that represent a change to an
// already-active table (schema or snapshot churn).
func (t EventType) IsMutation() bool {
	return t == EventSchemaUpdated || t == EventSnapshotAdded || t == EventSnapshotRemoved
}

// TableEvent is a single immutable entry in a table's metadata log.
// Once appended it is never reordered, rewritten, or removed.
type TableEvent struct {
	// TableID identifies the table this event belongs to.
	TableID TableID `json:"table_id" validate:"required"`

	// Version is the position of this event in the stream, starting at 1.
	Version Version `json:"version" validate:"min=1"`

	// Type is the kind of metadata change recorded.
	Type EventType `json:"event_type" validate:"required"`

	// Payload is an opaque byte sequence carried with the event. The engine
	// never interprets it.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate checks the structural validity of the event.
func (e TableEvent) Validate() error {
	if e.Version < 1 {
		return fmt.Errorf("event version must be >= 1, got %d", e.Version)
	}
	return e.Type.Validate()
}

// TableState is the derived lifecycle phase of a table. It is never stored;
// it is recomputed from the event log by replay.
type TableState string

const (
	// StateCreated means the table exists but has no committed data yet.
	StateCreated TableState = "Created"

	// StateActive means the table is stable and readable.
	StateActive TableState = "Active"

	// StateMutating means the table is undergoing a change.
	StateMutating TableState = "Mutating"
)

// Validate checks if the table state is valid.
func (s TableState) Validate() error {
	switch s {
	case StateCreated, StateActive, StateMutating:
		return nil
	default:
		return fmt.Errorf("invalid table state: %s", s)
	}
}
