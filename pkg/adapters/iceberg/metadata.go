// Package iceberg is the read-only catalog adapter. It maps Apache Iceberg
// v2 table metadata JSON onto the normalized snapshot the drift detector
// consumes. It is pure data mapping; nothing here is interpreted beyond
// table identity and evolution.
package iceberg

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Metadata is the subset of Iceberg table metadata icewatch cares about.
// Manifests, file-level details, and partition specs are ignored.
type Metadata struct {
	// FormatVersion is the Iceberg spec version of the metadata file.
	FormatVersion int `json:"format-version"`

	// TableUUID identifies the table in the catalog.
	TableUUID uuid.UUID `json:"table-uuid"`

	// CurrentSnapshotID is the active snapshot, absent for empty tables.
	CurrentSnapshotID *int64 `json:"current-snapshot-id"`

	// Schemas lists every schema the table has carried.
	Schemas []Schema `json:"schemas"`

	// CurrentSchemaID is the id of the schema currently in effect.
	CurrentSchemaID int32 `json:"current-schema-id"`
}

// Schema is a single schema entry in the metadata file.
type Schema struct {
	// SchemaID identifies this schema within the table.
	SchemaID int32 `json:"schema-id"`
}

// TableState is the normalized catalog snapshot consumed by the drift
// detector. The core treats it as opaque, already-validated input.
type TableState struct {
	// TableUUID identifies the table in the catalog.
	TableUUID uuid.UUID `json:"table_uuid"`

	// CurrentSnapshotID is the active snapshot id, nil when absent.
	CurrentSnapshotID *int64 `json:"current_snapshot_id,omitempty"`

	// CurrentSchemaID is the id of the schema currently in effect.
	CurrentSchemaID int32 `json:"current_schema_id"`
}

// ParseMetadata deserializes an Iceberg metadata document.
func ParseMetadata(data []byte) (*Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal iceberg metadata: %w", err)
	}
	return &meta, nil
}

// TableState converts raw metadata into the normalized snapshot.
func (m *Metadata) TableState() TableState {
	return TableState{
		TableUUID:         m.TableUUID,
		CurrentSnapshotID: m.CurrentSnapshotID,
		CurrentSchemaID:   m.CurrentSchemaID,
	}
}

// A snapshot id of -1 is how some writers encode "no current snapshot" in
// older metadata files. Normalize it to absent.
const noSnapshot = -1

// Normalize clears sentinel snapshot ids so the detector only ever sees a
// real snapshot id or nil.
func (s TableState) Normalize() TableState {
	if s.CurrentSnapshotID != nil && *s.CurrentSnapshotID == noSnapshot {
		s.CurrentSnapshotID = nil
	}
	return s
}
