package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Outcome reports what PutIfAbsent did.
type Outcome struct {
	// Inserted is true when a new key -> id mapping was written.
	Inserted bool

	// Existing is the id already stored under the key when Inserted is false.
	Existing string
}

// Tx is a read-write transaction over the environment.
type Tx struct {
	tx *sql.Tx
}

// Update runs fn inside one read-write transaction.
// The transaction commits if fn returns nil and rolls back otherwise;
// fn's error is returned unchanged.
//
// Sub-databases used by fn must already be open (see package doc).
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	conn, err := s.conn()
	if err != nil {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w: %w", ErrTransaction, err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w: %w", ErrTransaction, err)
	}
	return nil
}

// PutIfAbsent maps key to id in db unless key is already present, in its
// own transaction. An existing mapping is never overwritten; its id is
// reported in Outcome.Existing.
func (s *Store) PutIfAbsent(ctx context.Context, db SubDB, key []byte, id string) (Outcome, error) {
	var out Outcome
	err := s.Update(ctx, func(tx *Tx) error {
		var err error
		out, err = tx.PutIfAbsent(ctx, db, key, id)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// PutIfAbsent maps key to id in db unless key is already present.
//
// The insert uses ON CONFLICT DO NOTHING; when no row was affected the
// existing id is selected in the same transaction.
func (t *Tx) PutIfAbsent(ctx context.Context, db SubDB, key []byte, id string) (Outcome, error) {
	key = nonNil(key)

	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO entries (subdb, key, id)
		VALUES (?, ?, ?)
		ON CONFLICT(subdb, key) DO NOTHING
	`, db.id, key, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("put %s: insert: %w: %w", db.Name, ErrTransaction, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return Outcome{}, fmt.Errorf("put %s: rows affected: %w: %w", db.Name, ErrTransaction, err)
	}
	if rowsAffected > 0 {
		return Outcome{Inserted: true}, nil
	}

	existing, err := t.Get(ctx, db, key)
	if err != nil {
		return Outcome{}, fmt.Errorf("put %s: select existing: %w", db.Name, err)
	}
	return Outcome{Existing: existing}, nil
}

// Get looks key up in db within the transaction.
// Returns ErrNotFound if the key is absent.
func (t *Tx) Get(ctx context.Context, db SubDB, key []byte) (string, error) {
	return scanID(t.tx.QueryRowContext(ctx, selectEntrySQL, db.id, nonNil(key)), db, key)
}

const selectEntrySQL = `SELECT id FROM entries WHERE subdb = ? AND key = ?`

func scanID(row *sql.Row, db SubDB, key []byte) (string, error) {
	var id string
	err := row.Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s %q: %w", db.Name, key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w: %w", db.Name, ErrTransaction, err)
	}
	return id, nil
}

func nonNil(key []byte) []byte {
	if key == nil {
		return []byte{}
	}
	return key
}
