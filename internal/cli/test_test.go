package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lakeidx/internal/testutil"
)

const scenariosDir = "../../testdata/scenarios"

func runTestCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"test"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTest_RepositoryScenariosPass(t *testing.T) {
	out, err := runTestCommand(t, scenariosDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ paris_by_name")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTest_Filter(t *testing.T) {
	out, err := runTestCommand(t, scenariosDir, "--filter", "paris*", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "paris_by_name", resp.Data.Scenarios[0].Name)
}

func TestTest_MissingDir(t *testing.T) {
	_, err := runTestCommand(t, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_EmptyDir(t *testing.T) {
	out, err := runTestCommand(t, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

const failingScenario = `
name: failing
description: "expects the wrong id"
schema:
  location:
    indexes:
      - name: byName
        fields: [name]
steps:
  - put:
      noun: location
      fields: { id: a, name: Paris }
    expect: { id: b }
`

func TestTest_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "failing.yaml", failingScenario)

	out, err := runTestCommand(t, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, `expected id "b", got "a"`)
}

func TestTest_UpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	scenario, err := os.ReadFile(filepath.Join(scenariosDir, "paris_by_name.yaml"))
	require.NoError(t, err)
	testutil.WriteFile(t, dir, "paris_by_name.yaml", string(scenario))

	out, err := runTestCommand(t, dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden updated)")

	written, err := os.ReadFile(filepath.Join(dir, "golden", "paris_by_name.golden"))
	require.NoError(t, err)
	committed, err := os.ReadFile(filepath.Join(scenariosDir, "golden", "paris_by_name.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(committed), string(written))

	// A tampered golden file fails the comparison.
	testutil.WriteFile(t, dir, "golden/paris_by_name.golden", "{}\n")
	out, err = runTestCommand(t, dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
}
