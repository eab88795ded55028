package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/icewatch/icewatch/pkg/engine"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore persists the append-only event log and the simulation audit
// trail in a single SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		path: cfg.Path,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	// Open database with SQLite-specific connection parameters. The
	// immediate txlock matters here: appends race on the version check.
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// AppendEvent appends an event to the log with compare-and-swap versioning:
// the event's version must be exactly the current head plus one, checked
// and inserted inside a single transaction. A mismatch returns
// *engine.VersionConflictError and leaves the log untouched.
func (s *SQLiteStore) AppendEvent(ctx context.Context, event engine.TableEvent) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var head uint64
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM events`).Scan(&head)
	if err != nil {
		return fmt.Errorf("failed to read log head: %w", err)
	}

	expected := engine.Version(head + 1)
	if event.Version != expected {
		return &engine.VersionConflictError{Expected: expected, Actual: event.Version}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (version, table_id, event_type, payload, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		uint64(event.Version),
		event.TableID.String(),
		string(event.Type),
		[]byte(event.Payload),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit append: %w", err)
	}
	return nil
}

// LoadEvents returns the full log in version order.
func (s *SQLiteStore) LoadEvents(ctx context.Context) ([]engine.TableEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, table_id, event_type, payload
		FROM events
		ORDER BY version ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	defer rows.Close()

	events := []engine.TableEvent{}
	for rows.Next() {
		var (
			version   uint64
			tableID   string
			eventType string
			payload   []byte
		)
		if err := rows.Scan(&version, &tableID, &eventType, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		id, err := engine.ParseTableID(tableID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse table ID %q: %w", tableID, err)
		}

		events = append(events, engine.TableEvent{
			TableID: id,
			Version: engine.Version(version),
			Type:    engine.EventType(eventType),
			Payload: payload,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// ListEventRecords returns event rows with their recorded timestamps, in
// version order with pagination.
func (s *SQLiteStore) ListEventRecords(ctx context.Context, limit, offset int) ([]*EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, table_id, event_type, payload, recorded_at
		FROM events
		ORDER BY version ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list event records: %w", err)
	}
	defer rows.Close()

	records := []*EventRecord{}
	for rows.Next() {
		record := &EventRecord{}
		err := rows.Scan(
			&record.Version,
			&record.TableID,
			&record.EventType,
			&record.Payload,
			&record.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event records: %w", err)
	}

	return records, nil
}

// HeadVersion returns the highest version in the log, 0 when empty.
func (s *SQLiteStore) HeadVersion(ctx context.Context) (engine.Version, error) {
	var head uint64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM events`).Scan(&head)
	if err != nil {
		return 0, fmt.Errorf("failed to read log head: %w", err)
	}
	return engine.Version(head), nil
}

// LogStore binds the store to a context and adapts it to engine.LogStore,
// so a durable log can back engine.MetadataLog directly.
func (s *SQLiteStore) LogStore(ctx context.Context) engine.LogStore {
	return &boundLogStore{ctx: ctx, store: s}
}

type boundLogStore struct {
	ctx   context.Context
	store *SQLiteStore
}

func (b *boundLogStore) Append(event engine.TableEvent) error {
	return b.store.AppendEvent(b.ctx, event)
}

func (b *boundLogStore) Load() ([]engine.TableEvent, error) {
	return b.store.LoadEvents(b.ctx)
}

func (b *boundLogStore) CurrentVersion() (engine.Version, error) {
	return b.store.HeadVersion(b.ctx)
}

// CreateSimulation records a completed simulation in the audit trail.
func (s *SQLiteStore) CreateSimulation(ctx context.Context, record *SimulationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO simulations (id, table_id, expected_state, log_version, findings, decisions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.TableID,
		record.ExpectedState,
		record.LogVersion,
		record.Findings,
		record.Decisions,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create simulation record: %w", err)
	}
	return nil
}

// GetSimulation retrieves a simulation record by ID
func (s *SQLiteStore) GetSimulation(ctx context.Context, id string) (*SimulationRecord, error) {
	record := &SimulationRecord{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, table_id, expected_state, log_version, findings, decisions, created_at
		FROM simulations
		WHERE id = ?
	`, id).Scan(
		&record.ID,
		&record.TableID,
		&record.ExpectedState,
		&record.LogVersion,
		&record.Findings,
		&record.Decisions,
		&record.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("simulation not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get simulation: %w", err)
	}

	return record, nil
}

// ListSimulations lists simulation records with pagination, newest first.
func (s *SQLiteStore) ListSimulations(ctx context.Context, limit, offset int) ([]*SimulationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, table_id, expected_state, log_version, findings, decisions, created_at
		FROM simulations
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list simulations: %w", err)
	}
	defer rows.Close()

	records := []*SimulationRecord{}
	for rows.Next() {
		record := &SimulationRecord{}
		err := rows.Scan(
			&record.ID,
			&record.TableID,
			&record.ExpectedState,
			&record.LogVersion,
			&record.Findings,
			&record.Decisions,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan simulation: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating simulations: %w", err)
	}

	return records, nil
}

// DeleteSimulation deletes a simulation record by ID
func (s *SQLiteStore) DeleteSimulation(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM simulations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete simulation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("simulation not found: %s", id)
	}

	return nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}
