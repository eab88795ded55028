// Package engine implements the correctness core of icewatch: the versioned
// append-only metadata log, the table lifecycle state machine, the invariant
// registry, and the deterministic replay that derives expected table state.
package engine

import (
	"errors"
	"fmt"
)

// VersionConflictError is returned when an append carries a version other
// than current version + 1. The store is left untouched.
type VersionConflictError struct {
	// Expected is the version the store would have accepted.
	Expected Version

	// Actual is the version the rejected event carried.
	Actual Version
}

// Error implements the error interface.
func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected %d, got %d", e.Expected, e.Actual)
}

// Is implements error equality checking for errors.Is.
func (e *VersionConflictError) Is(target error) bool {
	t, ok := target.(*VersionConflictError)
	if !ok {
		return false
	}
	return e.Expected == t.Expected && e.Actual == t.Actual
}

// IllegalTransitionError is returned when the state machine receives an
// event it cannot apply in its current state. The machine's state is
// unchanged; the caller must treat the replay as terminally failed.
type IllegalTransitionError struct {
	// State is the lifecycle state the machine was in.
	State TableState

	// Event is the event type that was rejected.
	Event EventType
}

// Error implements the error interface.
func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal state transition: cannot apply %s while in %s", e.Event, e.State)
}

// Is implements error equality checking for errors.Is.
func (e *IllegalTransitionError) Is(target error) bool {
	t, ok := target.(*IllegalTransitionError)
	if !ok {
		return false
	}
	return e.State == t.State && e.Event == t.Event
}

// InvariantViolationError is returned when a registered invariant rejects a
// transition. It is distinct from IllegalTransitionError so callers can tell
// "structurally impossible" apart from "structurally possible but forbidden".
type InvariantViolationError struct {
	// Invariant is the name of the rule that failed.
	Invariant string

	// Reason is the rule's explanation of the failure.
	Reason string
}

// Error implements the error interface.
func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant %q violated: %s", e.Invariant, e.Reason)
}

// IsVersionConflict returns true if the error is a version conflict.
func IsVersionConflict(err error) bool {
	var e *VersionConflictError
	return errors.As(err, &e)
}

// IsIllegalTransition returns true if the error is an illegal state transition.
func IsIllegalTransition(err error) bool {
	var e *IllegalTransitionError
	return errors.As(err, &e)
}

// IsInvariantViolation returns true if the error is an invariant violation.
func IsInvariantViolation(err error) bool {
	var e *InvariantViolationError
	return errors.As(err, &e)
}
