package stores

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/icewatch/icewatch/pkg/engine"
)

// setupTestStore creates a file-backed SQLite store for testing. A file is
// used instead of :memory: so every pooled connection sees the same data.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: filepath.Join(t.TempDir(), "icewatch.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	return store
}

func testEvent(tableID engine.TableID, version engine.Version, typ engine.EventType) engine.TableEvent {
	return engine.TableEvent{
		TableID: tableID,
		Version: version,
		Type:    typ,
	}
}

// TestStoreLifecycle tests database initialization and closure
func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{
		Path: filepath.Join(t.TempDir(), "icewatch.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

// TestStoreMigrations tests database migrations
func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	// Check that tables exist by querying them
	tables := []string{"events", "simulations"}
	for _, table := range tables {
		query := "SELECT COUNT(*) FROM " + table
		var count int
		err := store.db.QueryRowContext(ctx, query).Scan(&count)
		if err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}
}

// TestAppendLoadRoundTrip tests that appended events load back in order
// with their payloads intact.
func TestAppendLoadRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	tableID := engine.NewTableID()

	payload, _ := json.Marshal(map[string]int64{"snapshot_id": 42})
	want := []engine.TableEvent{
		testEvent(tableID, 1, engine.EventTableCreated),
		{TableID: tableID, Version: 2, Type: engine.EventSnapshotAdded, Payload: payload},
		testEvent(tableID, 3, engine.EventSchemaUpdated),
	}

	for _, ev := range want {
		if err := store.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("AppendEvent(v%d) failed: %v", ev.Version, err)
		}
	}

	got, err := store.LoadEvents(ctx)
	if err != nil {
		t.Fatalf("LoadEvents failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Version != want[i].Version || got[i].Type != want[i].Type || got[i].TableID != want[i].TableID {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if string(got[1].Payload) != string(payload) {
		t.Errorf("payload = %s, want %s", got[1].Payload, payload)
	}

	head, err := store.HeadVersion(ctx)
	if err != nil {
		t.Fatalf("HeadVersion failed: %v", err)
	}
	if head != 3 {
		t.Errorf("head = %d, want 3", head)
	}
}

// TestAppendVersionConflict tests compare-and-swap rejection of stale and
// gapped versions.
func TestAppendVersionConflict(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	tableID := engine.NewTableID()

	if err := store.AppendEvent(ctx, testEvent(tableID, 1, engine.EventTableCreated)); err != nil {
		t.Fatalf("AppendEvent(v1) failed: %v", err)
	}

	tests := []struct {
		name    string
		version engine.Version
	}{
		{"duplicate version", 1},
		{"gap in sequence", 3},
		{"zero version", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.AppendEvent(ctx, testEvent(tableID, tt.version, engine.EventSnapshotAdded))
			if err == nil {
				t.Fatal("expected version conflict, got nil")
			}

			var conflict *engine.VersionConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("expected *engine.VersionConflictError, got %T: %v", err, err)
			}
			if conflict.Expected != 2 {
				t.Errorf("Expected = %d, want 2", conflict.Expected)
			}
			if conflict.Actual != tt.version {
				t.Errorf("Actual = %d, want %d", conflict.Actual, tt.version)
			}
		})
	}

	// Rejected appends must not extend the log.
	head, err := store.HeadVersion(ctx)
	if err != nil {
		t.Fatalf("HeadVersion failed: %v", err)
	}
	if head != 1 {
		t.Errorf("head = %d after rejected appends, want 1", head)
	}
}

// TestLogStoreAdapter tests that a durable store can back engine.MetadataLog
// and drive a replay.
func TestLogStoreAdapter(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	tableID := engine.NewTableID()

	metadataLog := engine.NewMetadataLog(store.LogStore(ctx))
	events := []engine.TableEvent{
		testEvent(tableID, 1, engine.EventTableCreated),
		testEvent(tableID, 2, engine.EventSnapshotAdded),
		testEvent(tableID, 3, engine.EventSnapshotRemoved),
	}
	for _, ev := range events {
		if err := metadataLog.Append(ev); err != nil {
			t.Fatalf("Append(v%d) failed: %v", ev.Version, err)
		}
	}

	state, err := engine.Replay(metadataLog, engine.BuiltinRegistry())
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if state != engine.StateActive {
		t.Errorf("state = %q, want %q", state, engine.StateActive)
	}
}

// TestSimulationRecords tests the simulation audit trail CRUD operations.
func TestSimulationRecords(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	record := &SimulationRecord{
		ID:            "sim-001",
		TableID:       engine.NewTableID().String(),
		ExpectedState: string(engine.StateActive),
		LogVersion:    3,
		Findings:      []byte(`[]`),
		Decisions:     []byte(`[]`),
		CreatedAt:     time.Now().UTC(),
	}

	if err := store.CreateSimulation(ctx, record); err != nil {
		t.Fatalf("CreateSimulation failed: %v", err)
	}

	got, err := store.GetSimulation(ctx, "sim-001")
	if err != nil {
		t.Fatalf("GetSimulation failed: %v", err)
	}
	if got.TableID != record.TableID || got.ExpectedState != record.ExpectedState || got.LogVersion != 3 {
		t.Errorf("got %+v, want %+v", got, record)
	}

	records, err := store.ListSimulations(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListSimulations failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}

	if err := store.DeleteSimulation(ctx, "sim-001"); err != nil {
		t.Fatalf("DeleteSimulation failed: %v", err)
	}
	if _, err := store.GetSimulation(ctx, "sim-001"); err == nil {
		t.Error("expected error after delete, got nil")
	}
	if err := store.DeleteSimulation(ctx, "sim-001"); err == nil {
		t.Error("expected error deleting missing record, got nil")
	}
}

// TestListEventRecords tests paginated event record listing.
func TestListEventRecords(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	tableID := engine.NewTableID()

	for v := engine.Version(1); v <= 3; v++ {
		typ := engine.EventSnapshotAdded
		if v == 1 {
			typ = engine.EventTableCreated
		}
		if err := store.AppendEvent(ctx, testEvent(tableID, v, typ)); err != nil {
			t.Fatalf("AppendEvent(v%d) failed: %v", v, err)
		}
	}

	records, err := store.ListEventRecords(ctx, 2, 1)
	if err != nil {
		t.Fatalf("ListEventRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Version != 2 || records[1].Version != 3 {
		t.Errorf("versions = %d, %d, want 2, 3", records[0].Version, records[1].Version)
	}
	if records[0].RecordedAt.IsZero() {
		t.Error("RecordedAt not set")
	}
}
