package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/lakeidx/internal/testutil"
)

const testSchema = `{
  "location": {
    "indexes": [
      {"name": "byName", "fields": ["name"], "options": {"lowercase": true}},
      {"name": "byCountryCity", "fields": ["country", "city"]}
    ]
  }
}`

// env is an isolated database layout for CLI tests.
type env struct {
	dir    string
	schema string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	return &env{dir: dir, schema: testutil.WriteSchema(t, dir, testSchema)}
}

// run executes the root command with the env's directories and returns
// stdout, stderr and the command error.
func (e *env) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	base := []string{
		"--index-dir", filepath.Join(e.dir, "index-data"),
		"--lake-dir", filepath.Join(e.dir, "jsonlake"),
		"--schema", e.schema,
	}

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(base, args...))

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
