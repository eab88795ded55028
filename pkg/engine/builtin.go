package engine

import "fmt"

// BuiltinInvariants returns the invariants icewatch ships with. Callers
// composing the engine directly can pick individually.
func BuiltinInvariants() []Invariant {
	return []Invariant{
		NoMutationBeforeActivation(),
		PositiveVersions(),
		KnownEventTypes(),
	}
}

// BuiltinRegistry returns a registry preloaded with the built-in
// invariants, in their declared order.
func BuiltinRegistry() *InvariantRegistry {
	registry := NewInvariantRegistry()
	for _, inv := range BuiltinInvariants() {
		registry.Register(inv)
	}
	return registry
}

// NoMutationBeforeActivation rejects transitions that move a table straight
// from Created into Mutating. The transition table already forbids this, so
// the rule mainly guards against future loosening of the table.
func NoMutationBeforeActivation() Invariant {
	return InvariantFunc{
		RuleName: "no-mutation-before-activation",
		Fn: func(prev TableState, _ TableEvent, next TableState) (string, bool) {
			if prev == StateCreated && next == StateMutating {
				return "table cannot mutate before activation", false
			}
			return "", true
		},
	}
}

// PositiveVersions rejects events carrying version 0. Gap-free sequencing
// is enforced by the log store on append; this rule only catches events
// from external log files that never passed through a store's CAS path.
func PositiveVersions() Invariant {
	return InvariantFunc{
		RuleName: "positive-versions",
		Fn: func(_ TableState, event TableEvent, _ TableState) (string, bool) {
			if event.Version < 1 {
				return fmt.Sprintf("event version must be >= 1, got %d", event.Version), false
			}
			return "", true
		},
	}
}

// KnownEventTypes rejects events outside the closed event type enumeration.
func KnownEventTypes() Invariant {
	return InvariantFunc{
		RuleName: "known-event-types",
		Fn: func(_ TableState, event TableEvent, _ TableState) (string, bool) {
			if err := event.Type.Validate(); err != nil {
				return err.Error(), false
			}
			return "", true
		},
	}
}
