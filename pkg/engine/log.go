package engine

// LogStore is the durability contract for a table's metadata log.
// Implementations may persist to memory, SQLite, object storage, etc.
//
// Required properties:
//   - Append-only: accepted events are never mutated or removed.
//   - Ordered: Load returns events in exact append order.
//   - CAS on version: Append succeeds only when event.Version is exactly
//     CurrentVersion()+1, and the check and the append are atomic with
//     respect to concurrent appenders.
//
// No version gaps or duplicates are ever observable through this interface.
// Replay depends on these properties without re-verifying them.
type LogStore interface {
	// Append stores an event, enforcing strict version sequencing.
	// Returns *VersionConflictError when the version is out of sequence.
	Append(event TableEvent) error

	// Load returns all events in append order. It is side-effect free and
	// repeatable.
	Load() ([]TableEvent, error)

	// CurrentVersion returns 0 for an empty log, else the version of the
	// last appended event.
	CurrentVersion() (Version, error)
}

// MetadataLog binds a LogStore to log-level semantics. It is the only
// component that writes to the store; everything downstream reads.
type MetadataLog struct {
	store LogStore
}

// NewMetadataLog creates a metadata log over the given store.
func NewMetadataLog(store LogStore) *MetadataLog {
	return &MetadataLog{store: store}
}

// Append validates and appends a single event.
func (l *MetadataLog) Append(event TableEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	return l.store.Append(event)
}

// Events returns the full ordered event sequence for replay.
func (l *MetadataLog) Events() ([]TableEvent, error) {
	return l.store.Load()
}

// CurrentVersion returns the version of the last appended event, or 0.
func (l *MetadataLog) CurrentVersion() (Version, error) {
	return l.store.CurrentVersion()
}
