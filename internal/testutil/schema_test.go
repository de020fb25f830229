package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSchema(t *testing.T) {
	dir := t.TempDir()

	path := WriteSchema(t, dir, ParisSchemaJSON)

	assert.Equal(t, filepath.Join(dir, "schema.json"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, ParisSchemaJSON, string(data))
}

func TestWriteFile_CreatesParents(t *testing.T) {
	path := WriteFile(t, t.TempDir(), "nested/dir/config.yaml", "tx_mode: per-record\n")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tx_mode: per-record\n", string(data))
}
