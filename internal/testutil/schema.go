// Package testutil provides helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ParisSchemaJSON declares a single lowercase name index on location.
const ParisSchemaJSON = `{
  "location": {
    "indexes": [
      {"name": "byName", "fields": ["name"], "options": {"lowercase": true}}
    ]
  }
}`

// WriteSchema writes content to dir/schema.json and returns its path.
func WriteSchema(t *testing.T, dir, content string) string {
	t.Helper()
	return WriteFile(t, dir, "schema.json", content)
}

// WriteFile writes content to dir/name and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
