package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lakeidx/internal/engine"
	"github.com/roach88/lakeidx/internal/keys"
)

const validScenario = `
name: test_scenario
description: "Test scenario for validation"
schema:
  location:
    indexes:
      - name: byName
        fields: [name]
        options: { lowercase: true }
config:
  tx_mode: per-record
  key_encoding: plain
steps:
  - put:
      noun: location
      fields: { id: abc123, name: Paris }
  - get: { noun: location, index: byName, key: paris }
    expect: { id: abc123 }
assertions:
  - type: trace_contains
    kind: index_inserted
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenario), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	require.Contains(t, scenario.Schema, "location")
	assert.Equal(t, []string{"name"}, scenario.Schema["location"].Indexes[0].Fields)
	assert.True(t, scenario.Schema["location"].Indexes[0].Options.Lowercase)
	assert.Equal(t, engine.TxPerRecord, scenario.Config.TxMode)
	assert.Equal(t, keys.EncodingPlain, scenario.Config.KeyEncoding)
	require.Len(t, scenario.Steps, 2)
	require.NotNil(t, scenario.Steps[0].Put)
	assert.Equal(t, "Paris", scenario.Steps[0].Put.Fields["name"])
	require.NotNil(t, scenario.Steps[1].Get)
	assert.Equal(t, "abc123", scenario.Steps[1].Expect.ID)
	assert.Len(t, scenario.Assertions, 1)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "unknown top-level field"
step:
  - put: { noun: location, fields: {} }
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nsteps:\n  - put: { noun: location }\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nsteps:\n  - put: { noun: location }\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    "name: n\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "empty step",
			yaml:    "name: n\ndescription: d\nsteps:\n  - expect: { id: a }\n",
			wantErr: "steps[0]: one of put or get is required",
		},
		{
			name:    "put and get",
			yaml:    "name: n\ndescription: d\nsteps:\n  - put: { noun: location }\n    get: { noun: location, index: byName }\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "put without noun",
			yaml:    "name: n\ndescription: d\nsteps:\n  - put: { fields: { id: a } }\n",
			wantErr: "steps[0].put: noun is required",
		},
		{
			name:    "get without index",
			yaml:    "name: n\ndescription: d\nsteps:\n  - get: { noun: location }\n",
			wantErr: "steps[0].get: noun and index are required",
		},
		{
			name:    "unknown error class",
			yaml:    "name: n\ndescription: d\nsteps:\n  - get: { noun: location, index: byName }\n    expect: { error: missing }\n",
			wantErr: "unknown error class",
		},
		{
			name:    "bad tx mode",
			yaml:    "name: n\ndescription: d\nconfig: { tx_mode: per-batch }\nsteps:\n  - put: { noun: location }\n",
			wantErr: "invalid tx mode",
		},
		{
			name:    "unknown assertion type",
			yaml:    "name: n\ndescription: d\nsteps:\n  - put: { noun: location }\nassertions:\n  - type: final_count\n",
			wantErr: "unknown assertion type",
		},
		{
			name:    "trace_order without kinds",
			yaml:    "name: n\ndescription: d\nsteps:\n  - put: { noun: location }\nassertions:\n  - type: trace_order\n",
			wantErr: "kinds list is required",
		},
		{
			name:    "final_state without index",
			yaml:    "name: n\ndescription: d\nsteps:\n  - put: { noun: location }\nassertions:\n  - type: final_state\n    noun: location\n",
			wantErr: "noun and index are required for final_state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
