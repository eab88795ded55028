package iceberg

import (
	"testing"
)

func TestParseMetadata(t *testing.T) {
	data := []byte(`{
		"format-version": 2,
		"table-uuid": "9f7c8b31-3f9d-4b0a-9c3c-6b8df92f7e11",
		"current-snapshot-id": 123456789,
		"current-schema-id": 1,
		"schemas": [
			{ "schema-id": 0 },
			{ "schema-id": 1 }
		]
	}`)

	meta, err := ParseMetadata(data)
	if err != nil {
		t.Fatalf("ParseMetadata failed: %v", err)
	}

	state := meta.TableState()

	if state.TableUUID.String() != "9f7c8b31-3f9d-4b0a-9c3c-6b8df92f7e11" {
		t.Errorf("TableUUID = %s", state.TableUUID)
	}
	if state.CurrentSnapshotID == nil || *state.CurrentSnapshotID != 123456789 {
		t.Errorf("CurrentSnapshotID = %v, want 123456789", state.CurrentSnapshotID)
	}
	if state.CurrentSchemaID != 1 {
		t.Errorf("CurrentSchemaID = %d, want 1", state.CurrentSchemaID)
	}
}

func TestParseMetadata_MissingSnapshot(t *testing.T) {
	data := []byte(`{
		"format-version": 2,
		"table-uuid": "9f7c8b31-3f9d-4b0a-9c3c-6b8df92f7e11",
		"current-schema-id": 0,
		"schemas": [{ "schema-id": 0 }]
	}`)

	meta, err := ParseMetadata(data)
	if err != nil {
		t.Fatalf("ParseMetadata failed: %v", err)
	}

	if meta.TableState().CurrentSnapshotID != nil {
		t.Error("CurrentSnapshotID present on table without snapshots")
	}
}

func TestParseMetadata_InvalidJSON(t *testing.T) {
	if _, err := ParseMetadata([]byte("{not json")); err == nil {
		t.Error("ParseMetadata accepted invalid JSON")
	}
}

func TestTableState_NormalizeSentinelSnapshot(t *testing.T) {
	sentinel := int64(-1)
	state := TableState{CurrentSnapshotID: &sentinel}.Normalize()
	if state.CurrentSnapshotID != nil {
		t.Error("Sentinel -1 snapshot id survived normalization")
	}

	real := int64(42)
	state = TableState{CurrentSnapshotID: &real}.Normalize()
	if state.CurrentSnapshotID == nil || *state.CurrentSnapshotID != 42 {
		t.Error("Real snapshot id lost during normalization")
	}
}
