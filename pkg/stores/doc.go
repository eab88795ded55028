// Package stores provides persistence layer implementations for icewatch.
// It includes SQLite-based storage with WAL mode, connection pooling,
// compare-and-swap appends for the table metadata event log, and an audit
// trail of completed simulations.
package stores
