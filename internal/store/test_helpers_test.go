package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T, maxSubDBs int) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, Options{MaxSubDBs: maxSubDBs})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// openTestSubDB opens a sub-database or fails the test.
func openTestSubDB(t *testing.T, s *Store, name string) SubDB {
	t.Helper()
	db, err := s.OpenSubDB(context.Background(), name)
	if err != nil {
		t.Fatalf("OpenSubDB(%q) failed: %v", name, err)
	}
	return db
}
