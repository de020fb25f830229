package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lakeidx/internal/catalog"
	"github.com/roach88/lakeidx/internal/engine"
)

func locationSchema() catalog.Source {
	return catalog.Source{
		"location": {Indexes: []catalog.IndexDefinition{
			{Name: "byName", Fields: []string{"name"}, Options: catalog.Options{Lowercase: true}},
		}},
	}
}

func TestRun_Pass(t *testing.T) {
	scenario := &Scenario{
		Name:        "pass",
		Description: "put then get",
		Schema:      locationSchema(),
		Steps: []Step{
			{Put: &PutStep{Noun: "location", Fields: map[string]any{"id": "abc123", "name": "Paris"}}},
			{Get: &GetStep{Noun: "location", Index: "byName", Key: "paris"}, Expect: &Expect{ID: "abc123"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
	assert.Equal(t, "index_inserted", result.Trace[0].Kind)
	assert.Equal(t, "lookup", result.Trace[1].Kind)
	assert.True(t, result.Trace[1].Found)
	assert.Equal(t, map[string]string{"paris": "abc123"}, result.State["location.byName"])
}

func TestRun_WrongIDFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_id",
		Description: "expect clause mismatch",
		Schema:      locationSchema(),
		Steps: []Step{
			{Put: &PutStep{Noun: "location", Fields: map[string]any{"id": "abc123", "name": "Paris"}}},
			{Get: &GetStep{Noun: "location", Index: "byName", Key: "paris"}, Expect: &Expect{ID: "other"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected id "other", got "abc123"`)
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected_error",
		Description: "a get without expect must succeed",
		Schema:      locationSchema(),
		Steps: []Step{
			{Get: &GetStep{Noun: "location", Index: "byName", Key: "paris"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `got "not_found"`)
}

func TestRun_ExpectedErrorMissingFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing_error",
		Description: "expected not_found but the key exists",
		Schema:      locationSchema(),
		Steps: []Step{
			{Put: &PutStep{Noun: "location", Fields: map[string]any{"id": "abc123", "name": "Paris"}}},
			{Get: &GetStep{Noun: "location", Index: "byName", Key: "paris"}, Expect: &Expect{Error: ErrClassNotFound}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "got success")
}

func TestRun_GeneratedIDsAreDeterministic(t *testing.T) {
	scenario := &Scenario{
		Name:        "ids",
		Description: "same ids on every run",
		Schema:      locationSchema(),
		Steps: []Step{
			{Put: &PutStep{Noun: "location", Fields: map[string]any{"name": "Paris"}}},
			{Put: &PutStep{Noun: "location", Fields: map[string]any{"name": "Lyon"}}},
		},
	}

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.State, second.State)
	assert.Equal(t, "000000lo000000000000000002", first.State["location.byName"]["lyon"])
}

func TestRun_InvalidSchema(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_schema",
		Description: "index without fields",
		Schema: catalog.Source{
			"location": {Indexes: []catalog.IndexDefinition{{Name: "byName"}}},
		},
		Steps: []Step{{Put: &PutStep{Noun: "location"}}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build catalog")
}

func TestErrorClass(t *testing.T) {
	assert.Equal(t, "", errorClass(nil))
	assert.Equal(t, ErrClassNotFound, errorClass(fmt.Errorf("location.byName %q: %w", "rome", engine.ErrNotFound)))
	assert.Equal(t, ErrClassUnknownIndex, errorClass(fmt.Errorf("%w: byCity", engine.ErrUnknownIndex)))
	assert.Equal(t, ErrClassStore, errorClass(&engine.StoreError{Op: "put", SubDB: "location.byName", Err: errors.New("disk full")}))
	assert.Equal(t, ErrClassOther, errorClass(assert.AnError))
}
