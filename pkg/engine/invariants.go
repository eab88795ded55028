package engine

// Invariant is a pure rule that must hold across every state transition.
// Implementations must be deterministic and side-effect free: the same
// (prev, event, next) triple always yields the same verdict.
type Invariant interface {
	// Name identifies the rule in violation reports.
	Name() string

	// Check inspects one committed transition. A non-empty reason means
	// the invariant failed; an empty reason means it passed.
	Check(prev TableState, event TableEvent, next TableState) (reason string, ok bool)
}

// InvariantRegistry holds an ordered set of invariants evaluated on every
// transition during replay.
type InvariantRegistry struct {
	invariants []Invariant
}

// NewInvariantRegistry creates an empty registry. An empty registry always
// passes; it is the dry-run/minimal configuration.
func NewInvariantRegistry() *InvariantRegistry {
	return &InvariantRegistry{}
}

// Register appends an invariant. Evaluation order is registration order.
func (r *InvariantRegistry) Register(inv Invariant) {
	r.invariants = append(r.invariants, inv)
}

// Len returns the number of registered invariants.
func (r *InvariantRegistry) Len() int {
	return len(r.invariants)
}

// Evaluate runs all invariants in registration order and stops at the first
// failure, wrapping it as *InvariantViolationError. The first violation is
// enough to halt a replay: past that point the derived state cannot be
// trusted. A nil registry evaluates as always passing.
func (r *InvariantRegistry) Evaluate(prev TableState, event TableEvent, next TableState) error {
	if r == nil {
		return nil
	}
	for _, inv := range r.invariants {
		if reason, ok := inv.Check(prev, event, next); !ok {
			return &InvariantViolationError{Invariant: inv.Name(), Reason: reason}
		}
	}
	return nil
}

// InvariantFunc adapts a plain function into an Invariant.
type InvariantFunc struct {
	// RuleName identifies the rule.
	RuleName string

	// Fn is the predicate.
	Fn func(prev TableState, event TableEvent, next TableState) (string, bool)
}

// Name implements Invariant.
func (f InvariantFunc) Name() string { return f.RuleName }

// Check implements Invariant.
func (f InvariantFunc) Check(prev TableState, event TableEvent, next TableState) (string, bool) {
	return f.Fn(prev, event, next)
}
