package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

var (
	// ErrNotFound is returned for absent keys and sub-databases.
	ErrNotFound = errors.New("not found")

	// ErrCapacityExceeded is returned when opening a sub-database would
	// exceed Options.MaxSubDBs.
	ErrCapacityExceeded = errors.New("sub-database capacity exceeded")

	// ErrUnavailable wraps failures to open or configure the environment.
	ErrUnavailable = errors.New("store unavailable")

	// ErrTransaction wraps failures to begin, execute or commit a transaction.
	ErrTransaction = errors.New("transaction failed")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
)

// Options configure a Store.
type Options struct {
	// MaxSubDBs is the number of sub-databases this Store may open.
	// Must be positive.
	MaxSubDBs int
}

// SubDB is a handle to an open sub-database.
type SubDB struct {
	id   int64
	Name string
}

// Store is the transactional environment holding all sub-databases.
type Store struct {
	db        *sql.DB
	maxSubDBs int

	mu      sync.Mutex
	handles map[string]SubDB
}

// Open creates or opens the environment at path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts Options) (*Store, error) {
	if opts.MaxSubDBs <= 0 {
		return nil, fmt.Errorf("%w: max sub-databases must be positive, got %d", ErrUnavailable, opts.MaxSubDBs)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrUnavailable, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to connect to database: %w", ErrUnavailable, err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to apply pragmas: %w", ErrUnavailable, err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to apply schema: %w", ErrUnavailable, err)
	}

	return &Store{
		db:        db,
		maxSubDBs: opts.MaxSubDBs,
		handles:   make(map[string]SubDB),
	}, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
// Closing twice is a no-op; later operations return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.handles = make(map[string]SubDB)
	return err
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// Capacity returns the maximum number of sub-databases.
func (s *Store) Capacity() int {
	return s.maxSubDBs
}

// OpenSubDBs returns the number of sub-databases opened so far.
func (s *Store) OpenSubDBs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// OpenSubDB creates or opens the named sub-database.
// Idempotent: opening the same name again returns the cached handle.
func (s *Store) OpenSubDB(ctx context.Context, name string) (SubDB, error) {
	return s.openSubDB(ctx, name, true)
}

// LookupSubDB opens an existing sub-database without creating it.
// Returns ErrNotFound if no sub-database of that name was ever created.
func (s *Store) LookupSubDB(ctx context.Context, name string) (SubDB, error) {
	return s.openSubDB(ctx, name, false)
}

func (s *Store) openSubDB(ctx context.Context, name string, create bool) (SubDB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return SubDB{}, ErrClosed
	}

	if h, ok := s.handles[name]; ok {
		return h, nil
	}
	if len(s.handles) >= s.maxSubDBs {
		return SubDB{}, fmt.Errorf("%w: cannot open %q, %d of %d in use", ErrCapacityExceeded, name, len(s.handles), s.maxSubDBs)
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM subdbs WHERE name = ?`, name).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if !create {
			return SubDB{}, fmt.Errorf("sub-database %q: %w", name, ErrNotFound)
		}
		id, err = s.createSubDB(ctx, name)
		if err != nil {
			return SubDB{}, err
		}
	case err != nil:
		return SubDB{}, fmt.Errorf("open sub-database %q: %w: %w", name, ErrTransaction, err)
	}

	h := SubDB{id: id, Name: name}
	s.handles[name] = h
	return h, nil
}

func (s *Store) createSubDB(ctx context.Context, name string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("create sub-database %q: begin tx: %w: %w", name, ErrTransaction, err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO subdbs (name) VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, name); err != nil {
		return 0, fmt.Errorf("create sub-database %q: insert: %w: %w", name, ErrTransaction, err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM subdbs WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("create sub-database %q: select: %w: %w", name, ErrTransaction, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("create sub-database %q: commit: %w: %w", name, ErrTransaction, err)
	}
	return id, nil
}

// SubDBNames lists every sub-database ever created in the environment,
// sorted by name.
func (s *Store) SubDBNames(ctx context.Context) ([]string, error) {
	conn, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, `SELECT name FROM subdbs ORDER BY name COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sub-databases: %w: %w", ErrTransaction, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list sub-databases: scan: %w: %w", ErrTransaction, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sub-databases: iterate: %w: %w", ErrTransaction, err)
	}
	return names, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
