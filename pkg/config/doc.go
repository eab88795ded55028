// Package config provides input loading and validation for icewatch.
//
// # Overview
//
// The config package implements the input side of an audit run: the
// application configuration file, the event log file, the Iceberg table
// metadata file, and the policy configuration all enter the system through
// this package and are validated before any pipeline stage sees them.
//
// # Components
//
// AppConfig: the top-level application configuration, loaded from YAML with
// struct-tag validation and sensible defaults for everything omitted.
//
// Event log loading: an ordered JSON array of table metadata events,
// checked for dense sequential versioning before replay.
//
// Iceberg metadata loading: the catalog's table metadata document, parsed
// and normalized into the observed state the drift detector compares
// against.
package config
