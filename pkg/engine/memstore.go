package engine

import "sync"

// MemoryLogStore is the in-memory reference implementation of LogStore.
// It is used for tests and single-run simulations; durable backends live in
// pkg/stores and are chosen at composition time.
type MemoryLogStore struct {
	mu     sync.Mutex
	events []TableEvent
}

// NewMemoryLogStore creates an empty in-memory log store.
func NewMemoryLogStore() *MemoryLogStore {
	return &MemoryLogStore{}
}

// Append stores an event if its version is exactly current+1. The version
// check and the append happen under one lock so concurrent appenders cannot
// both observe version N and write N+1.
func (s *MemoryLogStore) Append(event TableEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expected := Version(1)
	if n := len(s.events); n > 0 {
		expected = s.events[n-1].Version + 1
	}

	if event.Version != expected {
		return &VersionConflictError{Expected: expected, Actual: event.Version}
	}

	s.events = append(s.events, event)
	return nil
}

// Load returns a copy of all events in append order.
func (s *MemoryLogStore) Load() ([]TableEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TableEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}

// CurrentVersion returns the version of the last appended event, or 0.
func (s *MemoryLogStore) CurrentVersion() (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) == 0 {
		return 0, nil
	}
	return s.events[len(s.events)-1].Version, nil
}
