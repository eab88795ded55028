package engine

import (
	"errors"
	"testing"
)

func testEvent(version Version, eventType EventType) TableEvent {
	return TableEvent{
		TableID: NewTableID(),
		Version: version,
		Type:    eventType,
	}
}

func TestMetadataLog_AppendAndLoad(t *testing.T) {
	log := NewMetadataLog(NewMemoryLogStore())

	events := []TableEvent{
		testEvent(1, EventTableCreated),
		testEvent(2, EventSchemaUpdated),
		testEvent(3, EventSnapshotAdded),
	}

	for _, e := range events {
		if err := log.Append(e); err != nil {
			t.Fatalf("Append(v%d) failed: %v", e.Version, err)
		}
	}

	loaded, err := log.Events()
	if err != nil {
		t.Fatalf("Events() failed: %v", err)
	}

	if len(loaded) != len(events) {
		t.Fatalf("Expected %d events, got %d", len(events), len(loaded))
	}

	for i, e := range loaded {
		if e.Version != events[i].Version || e.Type != events[i].Type {
			t.Errorf("Event %d: got (v%d, %s), want (v%d, %s)",
				i, e.Version, e.Type, events[i].Version, events[i].Type)
		}
	}

	current, err := log.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion() failed: %v", err)
	}
	if current != 3 {
		t.Errorf("CurrentVersion = %d, want 3", current)
	}
}

func TestMetadataLog_EmptyVersion(t *testing.T) {
	log := NewMetadataLog(NewMemoryLogStore())

	current, err := log.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion() failed: %v", err)
	}
	if current != 0 {
		t.Errorf("CurrentVersion on empty log = %d, want 0", current)
	}
}

func TestMetadataLog_VersionConflict(t *testing.T) {
	tests := []struct {
		name     string
		versions []Version
		failAt   int // index of the append that must fail
		expected Version
		actual   Version
	}{
		{
			name:     "first event must be version 1",
			versions: []Version{2},
			failAt:   0,
			expected: 1,
			actual:   2,
		},
		{
			name:     "version skip",
			versions: []Version{1, 3},
			failAt:   1,
			expected: 2,
			actual:   3,
		},
		{
			name:     "duplicate version",
			versions: []Version{1, 1},
			failAt:   1,
			expected: 2,
			actual:   1,
		},
		{
			name:     "version regression",
			versions: []Version{1, 2, 1},
			failAt:   2,
			expected: 3,
			actual:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := NewMetadataLog(NewMemoryLogStore())

			var gotErr error
			for i, v := range tt.versions {
				err := log.Append(testEvent(v, EventTableCreated))
				if i == tt.failAt {
					gotErr = err
					break
				}
				if err != nil {
					t.Fatalf("Unexpected failure at append %d: %v", i, err)
				}
			}

			var conflict *VersionConflictError
			if !errors.As(gotErr, &conflict) {
				t.Fatalf("Expected VersionConflictError, got %v", gotErr)
			}
			if conflict.Expected != tt.expected || conflict.Actual != tt.actual {
				t.Errorf("Conflict = {expected: %d, actual: %d}, want {expected: %d, actual: %d}",
					conflict.Expected, conflict.Actual, tt.expected, tt.actual)
			}

			// Rejected appends must not mutate the store.
			loaded, err := log.Events()
			if err != nil {
				t.Fatalf("Events() failed: %v", err)
			}
			if len(loaded) != tt.failAt {
				t.Errorf("Store contains %d events after rejected append, want %d",
					len(loaded), tt.failAt)
			}
		})
	}
}

func TestMetadataLog_DuplicateVersionKeepsSingleEvent(t *testing.T) {
	log := NewMetadataLog(NewMemoryLogStore())

	if err := log.Append(testEvent(1, EventTableCreated)); err != nil {
		t.Fatalf("First append failed: %v", err)
	}

	err := log.Append(testEvent(1, EventTableCreated))
	var conflict *VersionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Expected VersionConflictError, got %v", err)
	}
	if conflict.Expected != 2 || conflict.Actual != 1 {
		t.Errorf("Conflict = {expected: %d, actual: %d}, want {expected: 2, actual: 1}",
			conflict.Expected, conflict.Actual)
	}

	loaded, _ := log.Events()
	if len(loaded) != 1 {
		t.Errorf("Store contains %d events, want exactly 1", len(loaded))
	}
}

func TestMetadataLog_RejectsInvalidEvents(t *testing.T) {
	log := NewMetadataLog(NewMemoryLogStore())

	if err := log.Append(testEvent(1, EventType("Unknown"))); err == nil {
		t.Error("Append with unknown event type succeeded, want error")
	}
	if err := log.Append(testEvent(0, EventTableCreated)); err == nil {
		t.Error("Append with version 0 succeeded, want error")
	}
}

func TestMemoryLogStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryLogStore()
	if err := store.Append(testEvent(1, EventTableCreated)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	first, _ := store.Load()
	first[0].Type = EventSnapshotRemoved

	second, _ := store.Load()
	if second[0].Type != EventTableCreated {
		t.Error("Mutating a loaded slice leaked into the store")
	}
}
