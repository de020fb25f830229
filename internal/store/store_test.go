package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path, Options{MaxSubDBs: 2})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path, Options{MaxSubDBs: 2})
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path, Options{MaxSubDBs: 2})
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"subdbs", "entries"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found after idempotent opens", table)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db", Options{MaxSubDBs: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestOpen_InvalidCapacity(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "test.db"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t, 1)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	assert.NoError(t, s.Close())
}

func TestClosedStore(t *testing.T) {
	s := createTestStore(t, 2)
	ctx := context.Background()
	db := openTestSubDB(t, s, "a.b")
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.OpenSubDB(ctx, "a.b")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.LookupSubDB(ctx, "a.b")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, s.OpenSubDBs())
	_, err = s.PutIfAbsent(ctx, db, []byte("k"), "id")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Count(ctx, db)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.SubDBNames(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Get(ctx, SubDB{}, []byte("k"))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Dump(ctx, SubDB{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Update(ctx, func(*Tx) error { return nil }), ErrClosed)
}

func TestOpenSubDB_Idempotent(t *testing.T) {
	s := createTestStore(t, 2)
	ctx := context.Background()

	a, err := s.OpenSubDB(ctx, "location.byName")
	require.NoError(t, err)
	b, err := s.OpenSubDB(ctx, "location.byName")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, s.OpenSubDBs())
}

func TestOpenSubDB_CapacityExceeded(t *testing.T) {
	s := createTestStore(t, 2)
	ctx := context.Background()

	_, err := s.OpenSubDB(ctx, "a.x")
	require.NoError(t, err)
	_, err = s.OpenSubDB(ctx, "a.y")
	require.NoError(t, err)

	_, err = s.OpenSubDB(ctx, "a.z")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	// Already-open sub-databases stay reachable at capacity.
	_, err = s.OpenSubDB(ctx, "a.x")
	assert.NoError(t, err)
	assert.Equal(t, 2, s.Capacity())
}

func TestOpenSubDB_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path, Options{MaxSubDBs: 2})
	require.NoError(t, err)
	db1, err := s1.OpenSubDB(ctx, "location.byName")
	require.NoError(t, err)
	_, err = s1.PutIfAbsent(ctx, db1, []byte("paris"), "abc123")
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path, Options{MaxSubDBs: 1})
	require.NoError(t, err)
	defer s2.Close()

	db2, err := s2.LookupSubDB(ctx, "location.byName")
	require.NoError(t, err)
	id, err := s2.Get(ctx, db2, []byte("paris"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
}

func TestLookupSubDB_NotFound(t *testing.T) {
	s := createTestStore(t, 2)

	_, err := s.LookupSubDB(context.Background(), "location.byName")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, 0, s.OpenSubDBs())
}

func TestSubDBNames(t *testing.T) {
	s := createTestStore(t, 3)
	ctx := context.Background()

	names, err := s.SubDBNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	openTestSubDB(t, s, "person.byEmail")
	openTestSubDB(t, s, "location.byName")

	names, err = s.SubDBNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"location.byName", "person.byEmail"}, names)
}
