package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lakeidx/internal/ident"
	"github.com/roach88/lakeidx/internal/testutil"
)

func TestSchema_Text(t *testing.T) {
	e := newEnv(t)

	out, _, err := e.run(t, "", "schema")
	require.NoError(t, err)
	assert.Equal(t, "location\n  byName [name] lowercase\n  byCountryCity [country, city]\nsub-databases: 2\n", out)
}

func TestSchema_JSONFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "schema.yaml", `
location:
  indexes:
    - name: byName
      fields: [name]
vehicle:
  indexes:
    - name: byPlate
      fields: [plate]
      options: { unique: true }
`)

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--format", "json", "schema", path})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data SchemaResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Nouns, 2)
	assert.Equal(t, "location", resp.Data.Nouns[0].Noun)
	assert.Equal(t, "vehicle", resp.Data.Nouns[1].Noun)
	assert.True(t, resp.Data.Nouns[1].Indexes[0].Options.Unique)
	assert.Equal(t, 3, resp.Data.Capacity)
}

func TestSchema_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "schema.json", `{"location": {"indexes": [{"name": "byName", "fields": []}]}}`)

	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"schema", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, errOut.String(), "E205")
}

func TestNewID(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"newid", "location"})
	require.NoError(t, cmd.Execute())

	id := out.String()[:ident.Length]
	assert.Equal(t, id+"\n", out.String())
	assert.Equal(t, "lo", ident.Tag(id))
}
