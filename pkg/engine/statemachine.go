package engine

// StateMachine is the deterministic reducer deriving a table's lifecycle
// state from its event stream. It holds no state beyond the current phase
// and is pure apart from that single field.
//
// Transition table (anything not listed is illegal):
//
//	Created  + TableCreated                                    -> Active
//	Active   + SchemaUpdated|SnapshotAdded|SnapshotRemoved     -> Mutating
//	Mutating + SchemaUpdated|SnapshotAdded|SnapshotRemoved     -> Active
//
// A mutation-class event while Mutating closes the mutation rather than
// requiring an explicit "mutation complete" event.
type StateMachine struct {
	state TableState
}

// NewStateMachine creates a state machine for a freshly created table.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateCreated}
}

// Apply transitions the machine on a single event. On an illegal (state,
// event) pair it returns *IllegalTransitionError and leaves the state
// unchanged; the caller must treat that as a terminal replay error.
func (m *StateMachine) Apply(event TableEvent) error {
	next, ok := nextState(m.state, event.Type)
	if !ok {
		return &IllegalTransitionError{State: m.state, Event: event.Type}
	}
	m.state = next
	return nil
}

// State returns the current derived lifecycle state.
func (m *StateMachine) State() TableState {
	return m.state
}

// nextState is the exhaustive transition table.
func nextState(state TableState, event EventType) (TableState, bool) {
	switch {
	case state == StateCreated && event == EventTableCreated:
		return StateActive, true
	case state == StateActive && event.IsMutation():
		return StateMutating, true
	case state == StateMutating && event.IsMutation():
		return StateActive, true
	default:
		return state, false
	}
}
