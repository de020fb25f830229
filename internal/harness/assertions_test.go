package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Kind: "index_inserted", Noun: "location", Index: "byName", Key: "paris", ID: "a"},
		{Seq: 2, Kind: "index_exists", Noun: "location", Index: "byName", Key: "paris", ID: "b", Existing: "a"},
		{Seq: 3, Kind: "lookup", Noun: "location", Index: "byName", Key: "paris", ID: "a", Found: true},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Kind: "index_exists", Existing: "a"}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Kind: "lookup"}))

	err := assertTraceContains(trace, Assertion{Kind: "index_inserted", Key: "lyon"})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, err.Error(), `key="lyon"`)
	assert.Contains(t, err.Error(), "Full trace:")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Kinds: []string{"index_inserted", "lookup"}}))
	assert.NoError(t, assertTraceOrder(trace, Assertion{Kinds: []string{"index_inserted", "index_exists", "lookup"}}))

	err := assertTraceOrder(trace, Assertion{Kinds: []string{"lookup", "index_inserted"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing index_inserted after position 1")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Kind: "lookup", Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Kind: "index_inserted", Key: "lyon", Count: 0}))

	err := assertTraceCount(trace, Assertion{Kind: "index_exists", Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 events")
}

func TestAssertFinalState(t *testing.T) {
	state := map[string]map[string]string{
		"location.byName": {"paris": "a"},
		"location.byCity": {},
	}

	assert.NoError(t, assertFinalState(state, Assertion{Noun: "location", Index: "byName", Entries: map[string]string{"paris": "a"}}))
	assert.NoError(t, assertFinalState(state, Assertion{Noun: "Location", Index: "byCity"}))

	err := assertFinalState(state, Assertion{Noun: "location", Index: "byName", Entries: map[string]string{"paris": "b"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"paris": "a"`)

	err = assertFinalState(state, Assertion{Noun: "location", Index: "byZip"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such index")
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()
	result.State["location.byName"] = map[string]string{"paris": "a"}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceContains, Kind: "lookup"},
		{Type: AssertTraceCount, Kind: "lookup", Count: 5},
		{Type: AssertFinalState, Noun: "location", Index: "byName", Entries: map[string]string{"paris": "a"}},
	})

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "trace_count")
}
