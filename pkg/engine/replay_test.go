package engine

import (
	"errors"
	"testing"
)

func buildLog(t *testing.T, types ...EventType) *MetadataLog {
	t.Helper()
	log := NewMetadataLog(NewMemoryLogStore())
	for i, et := range types {
		if err := log.Append(testEvent(Version(i+1), et)); err != nil {
			t.Fatalf("Append(v%d, %s) failed: %v", i+1, et, err)
		}
	}
	return log
}

func TestReplay_FinalStates(t *testing.T) {
	tests := []struct {
		name   string
		events []EventType
		want   TableState
	}{
		{
			name:   "empty log stays Created",
			events: nil,
			want:   StateCreated,
		},
		{
			name:   "creation activates",
			events: []EventType{EventTableCreated},
			want:   StateActive,
		},
		{
			name:   "open mutation",
			events: []EventType{EventTableCreated, EventSchemaUpdated},
			want:   StateMutating,
		},
		{
			name:   "closed mutation",
			events: []EventType{EventTableCreated, EventSchemaUpdated, EventSnapshotAdded},
			want:   StateActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := buildLog(t, tt.events...)
			invariants := NewInvariantRegistry()

			state, err := Replay(log, invariants)
			if err != nil {
				t.Fatalf("Replay failed: %v", err)
			}
			if state != tt.want {
				t.Errorf("Final state = %s, want %s", state, tt.want)
			}
		})
	}
}

func TestReplay_IsDeterministic(t *testing.T) {
	log := buildLog(t, EventTableCreated, EventSchemaUpdated, EventSnapshotAdded, EventSnapshotRemoved)
	invariants := NewInvariantRegistry()
	for _, inv := range BuiltinInvariants() {
		invariants.Register(inv)
	}

	first, firstErr := Replay(log, invariants)
	for i := 0; i < 5; i++ {
		state, err := Replay(log, invariants)
		if state != first {
			t.Fatalf("Run %d: state = %s, first run = %s", i, state, first)
		}
		if (err == nil) != (firstErr == nil) {
			t.Fatalf("Run %d: err = %v, first run = %v", i, err, firstErr)
		}
	}
}

func TestReplay_IllegalTransitionIsFatal(t *testing.T) {
	// Log skips TableCreated entirely; the strict append sequencing still
	// accepts it because versions are sequential, but replay must reject it.
	log := buildLog(t, EventSchemaUpdated)

	_, err := Replay(log, NewInvariantRegistry())

	var illegal *IllegalTransitionError
	if !errors.As(err, &illegal) {
		t.Fatalf("Expected IllegalTransitionError, got %v", err)
	}
	if illegal.State != StateCreated || illegal.Event != EventSchemaUpdated {
		t.Errorf("Error names (%s, %s), want (%s, %s)",
			illegal.State, illegal.Event, StateCreated, EventSchemaUpdated)
	}
}

func TestReplay_InvariantViolationIsFatal(t *testing.T) {
	log := buildLog(t, EventTableCreated, EventSchemaUpdated)

	invariants := NewInvariantRegistry()
	invariants.Register(InvariantFunc{
		RuleName: "no-open-mutations",
		Fn: func(_ TableState, _ TableEvent, next TableState) (string, bool) {
			if next == StateMutating {
				return "mutations are forbidden", false
			}
			return "", true
		},
	})

	_, err := Replay(log, invariants)

	var violation *InvariantViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("Expected InvariantViolationError, got %v", err)
	}
	if violation.Invariant != "no-open-mutations" {
		t.Errorf("Violated invariant = %q, want %q", violation.Invariant, "no-open-mutations")
	}

	// An invariant violation must remain distinguishable from an illegal
	// transition.
	if IsIllegalTransition(err) {
		t.Error("Invariant violation also matches IllegalTransitionError")
	}
}

func TestReplayEvents_StateFailureBeforeInvariants(t *testing.T) {
	events := []TableEvent{testEvent(1, EventSnapshotAdded)}

	invoked := false
	invariants := NewInvariantRegistry()
	invariants.Register(InvariantFunc{
		RuleName: "tracker",
		Fn: func(TableState, TableEvent, TableState) (string, bool) {
			invoked = true
			return "", true
		},
	})

	_, err := ReplayEvents(events, invariants)
	if !IsIllegalTransition(err) {
		t.Fatalf("Expected IllegalTransitionError, got %v", err)
	}
	if invoked {
		t.Error("Invariants ran on a transition the state machine rejected")
	}
}
