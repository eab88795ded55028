package engine

import "fmt"

// Replay folds the full ordered event sequence through a fresh state
// machine, evaluating the invariant registry on every transition, and
// returns the single authoritative derived state.
//
// Replay is deterministic: the same event sequence and invariant set always
// yield the same final state or the same first failure. An empty log yields
// StateCreated. Any failure is terminal; there is no partial result.
func Replay(log *MetadataLog, invariants *InvariantRegistry) (TableState, error) {
	events, err := log.Events()
	if err != nil {
		return "", fmt.Errorf("load events: %w", err)
	}
	return ReplayEvents(events, invariants)
}

// ReplayEvents is Replay over an already-materialized event slice. It is
// used when the log comes from an external file rather than a store.
func ReplayEvents(events []TableEvent, invariants *InvariantRegistry) (TableState, error) {
	machine := NewStateMachine()
	prev := machine.State()

	for i, event := range events {
		if err := machine.Apply(event); err != nil {
			return "", fmt.Errorf("replay event %d (version %d): %w", i, event.Version, err)
		}
		next := machine.State()

		if err := invariants.Evaluate(prev, event, next); err != nil {
			return "", fmt.Errorf("replay event %d (version %d): %w", i, event.Version, err)
		}

		// Commit the transition.
		prev = next
	}

	return prev, nil
}
