package harness

import "github.com/roach88/lakeidx/internal/diag"

// TraceEvent is one diagnostic event in the order it was emitted.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Kind     string `json:"kind"`
	Noun     string `json:"noun,omitempty"`
	Index    string `json:"index,omitempty"`
	Key      string `json:"key,omitempty"`
	ID       string `json:"id,omitempty"`
	Existing string `json:"existing,omitempty"`
	Field    string `json:"field,omitempty"`
	Found    bool   `json:"found,omitempty"`
	Error    string `json:"error,omitempty"`
}

func traceEvent(seq int64, e diag.Event) TraceEvent {
	ev := TraceEvent{
		Seq:      seq,
		Kind:     string(e.Kind),
		Noun:     e.Noun,
		Index:    e.Index,
		Key:      e.Key,
		ID:       e.ID,
		Existing: e.Existing,
		Field:    e.Field,
		Found:    e.Found,
	}
	if e.Err != nil {
		ev.Error = e.Err.Error()
	}
	return ev
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains every diagnostic event in emission order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State maps each sub-database name to its final key -> id entries.
	State map[string]map[string]string `json:"state,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string]map[string]string),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
