package store

import (
	"context"
	"fmt"
)

// Entry is one key -> id mapping of a sub-database.
type Entry struct {
	Key []byte
	ID  string
}

// Get looks key up in db.
// Returns ErrNotFound if the key is absent.
func (s *Store) Get(ctx context.Context, db SubDB, key []byte) (string, error) {
	conn, err := s.conn()
	if err != nil {
		return "", err
	}
	return scanID(conn.QueryRowContext(ctx, selectEntrySQL, db.id, nonNil(key)), db, key)
}

// Dump returns every entry of db in key byte order.
//
// Dump reads the whole sub-database and is meant for debugging; nothing on
// the write path calls it.
//
// Returns an empty slice (not nil) for an empty sub-database.
func (s *Store) Dump(ctx context.Context, db SubDB) ([]Entry, error) {
	conn, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT key, id FROM entries
		WHERE subdb = ?
		ORDER BY key ASC
	`, db.id)
	if err != nil {
		return nil, fmt.Errorf("dump %s: %w: %w", db.Name, ErrTransaction, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.ID); err != nil {
			return nil, fmt.Errorf("dump %s: scan: %w: %w", db.Name, ErrTransaction, err)
		}
		if e.Key == nil {
			e.Key = []byte{}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dump %s: iterate: %w: %w", db.Name, ErrTransaction, err)
	}

	return entries, nil
}

// Count returns the number of entries in db.
func (s *Store) Count(ctx context.Context, db SubDB) (int, error) {
	conn, err := s.conn()
	if err != nil {
		return 0, err
	}

	var n int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE subdb = ?`, db.id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w: %w", db.Name, ErrTransaction, err)
	}
	return n, nil
}
