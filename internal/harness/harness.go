package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/lakeidx/internal/catalog"
	"github.com/roach88/lakeidx/internal/config"
	"github.com/roach88/lakeidx/internal/diag"
	"github.com/roach88/lakeidx/internal/engine"
	"github.com/roach88/lakeidx/internal/ident"
	"github.com/roach88/lakeidx/internal/record"
	"github.com/roach88/lakeidx/internal/store"
	"github.com/roach88/lakeidx/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenario steps against a real engine and store.
type Harness struct {
	engine   *engine.Engine
	recorder *diag.Recorder
	ids      ident.Generator
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh index environment in a temporary directory.
// Deterministic ids ensure reproducible results.
//
// Execution flow:
// 1. Build the catalog from the inline schema
// 2. Open a fresh store sized from the catalog (or config.max_subdbs)
// 3. Execute steps, validating expect clauses
// 4. Collect the trace and dump every index
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	cat, err := catalog.New(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	dir, err := os.MkdirTemp("", "lakeidx-harness-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	capacity := scenario.Config.MaxSubDBs
	if capacity == 0 {
		capacity = cat.SubDBCapacity()
	}
	st, err := store.Open(filepath.Join(dir, config.IndexFile), store.Options{MaxSubDBs: capacity})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	rec := diag.NewRecorder()
	h := &Harness{
		engine: engine.New(cat, st, rec, engine.Options{
			TxMode:        scenario.Config.TxMode,
			Encoding:      scenario.Config.KeyEncoding,
			UnknownFields: scenario.Config.UnknownFields,
		}),
		recorder: rec,
		ids:      testutil.NewSequenceGenerator(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	for i, e := range rec.Events() {
		result.Trace = append(result.Trace, traceEvent(int64(i+1), e))
	}

	if err := h.collectState(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to collect state: %w", err)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep runs one step and records a mismatch against its expect clause.
// A step without an expect clause must succeed.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	var (
		op  string
		id  string
		err error
	)
	switch {
	case step.Put != nil:
		op = "put"
		id, err = h.put(ctx, step.Put)
	case step.Get != nil:
		op = "get"
		id, err = h.get(ctx, step.Get)
	}

	want := Expect{}
	if step.Expect != nil {
		want = *step.Expect
	}

	if got := errorClass(err); got != want.Error {
		if err != nil {
			result.AddError(fmt.Sprintf("steps[%d] %s: expected error %q, got %q (%v)", i, op, want.Error, got, err))
		} else {
			result.AddError(fmt.Sprintf("steps[%d] %s: expected error %q, got success", i, op, want.Error))
		}
		return
	}
	if want.ID != "" && id != want.ID {
		result.AddError(fmt.Sprintf("steps[%d] %s: expected id %q, got %q", i, op, want.ID, id))
		return
	}

	h.logger.Info("step completed",
		"step", i,
		"op", op,
		"id", id,
		"error", errorClass(err),
	)
}

func (h *Harness) put(ctx context.Context, p *PutStep) (string, error) {
	doc := record.NewDocument(p.Noun, p.Fields)
	doc.Declare(p.Declare...)
	if doc.ID() == "" {
		doc.SetID(h.ids.New(p.Noun))
	}
	return h.engine.Put(ctx, doc)
}

func (h *Harness) get(ctx context.Context, g *GetStep) (string, error) {
	if len(g.Values) > 0 {
		return h.engine.Lookup(ctx, g.Noun, g.Index, g.Values...)
	}
	return h.engine.Get(ctx, g.Noun, g.Index, []byte(g.Key))
}

// collectState dumps every index of the catalog into result.State.
func (h *Harness) collectState(ctx context.Context, result *Result) error {
	cat := h.engine.Catalog()
	for _, noun := range cat.Nouns() {
		schema, _ := cat.Get(noun)
		for _, def := range schema.Indexes {
			entries, err := h.engine.Dump(ctx, noun, def.Name)
			if err != nil {
				return err
			}
			m := make(map[string]string, len(entries))
			for _, e := range entries {
				m[string(e.Key)] = e.ID
			}
			result.State[catalog.SubDBName(noun, def.Name)] = m
		}
	}
	return nil
}

// errorClass maps an engine error to the class named in Expect.Error.
func errorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, engine.ErrUnknownIndex):
		return ErrClassUnknownIndex
	case errors.Is(err, engine.ErrNotFound):
		return ErrClassNotFound
	case engine.IsStoreError(err):
		return ErrClassStore
	default:
		return ErrClassOther
	}
}
