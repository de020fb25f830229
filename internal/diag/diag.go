// Package diag is the diagnostics channel of the index engine.
//
// Every index write and every lookup emits one Event describing the action
// taken. Events go to a Sink chosen by the host: slog (the default), zap, a
// Recorder for tests and scenario traces, or Discard.
package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/zap"
)

// Kind identifies what happened.
type Kind string

const (
	// KindSchemaNotFound: the record's noun has no indexes; nothing was written.
	KindSchemaNotFound Kind = "schema_not_found"

	// KindFieldNotOnType: an index names a field the record's type does not
	// declare. Under the omit policy the field is dropped from the key.
	KindFieldNotOnType Kind = "field_not_on_type"

	// KindKeyFailed: key derivation failed; the index was skipped.
	KindKeyFailed Kind = "key_failed"

	// KindIndexInserted: a new key -> id mapping was written.
	KindIndexInserted Kind = "index_inserted"

	// KindIndexExists: the key was already mapped; the existing id wins.
	KindIndexExists Kind = "index_exists"

	// KindLookup: a point lookup ran. Found reports the outcome.
	KindLookup Kind = "lookup"
)

// Event is one diagnostic line.
type Event struct {
	Kind     Kind
	Noun     string
	Index    string
	SubDB    string
	Key      string
	ID       string
	Existing string // id already stored, for KindIndexExists
	Field    string // offending field, for KindFieldNotOnType and KindKeyFailed
	Found    bool   // for KindLookup
	Err      error
}

// String renders the event as a human-readable line.
func (e Event) String() string {
	switch e.Kind {
	case KindSchemaNotFound:
		return fmt.Sprintf("no schema for %s, record %s not indexed", e.Noun, e.ID)
	case KindFieldNotOnType:
		return fmt.Sprintf("warning: field %s is missing from %s", e.Field, e.SubDB)
	case KindKeyFailed:
		return fmt.Sprintf("skipping %s for %s: %v", e.SubDB, e.ID, e.Err)
	case KindIndexInserted:
		return fmt.Sprintf("writing %s key:%s value: %s", e.SubDB, e.Key, e.ID)
	case KindIndexExists:
		return fmt.Sprintf("exists: %s %q: %q (dropped %s)", e.SubDB, e.Key, e.Existing, e.ID)
	case KindLookup:
		if e.Found {
			return fmt.Sprintf("lookup %s %q: %s", e.SubDB, e.Key, e.ID)
		}
		return fmt.Sprintf("lookup %s %q: not found", e.SubDB, e.Key)
	default:
		return fmt.Sprintf("%s %s %s", e.Kind, e.SubDB, e.Key)
	}
}

// Level returns the log level the event is reported at.
func (e Event) Level() slog.Level {
	switch e.Kind {
	case KindFieldNotOnType, KindKeyFailed:
		return slog.LevelWarn
	case KindIndexExists:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Sink receives diagnostic events.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// SlogSink writes events to a slog.Logger.
type SlogSink struct {
	Logger *slog.Logger // nil means slog.Default()
}

// Emit implements Sink.
func (s SlogSink) Emit(ctx context.Context, e Event) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []slog.Attr{slog.String("kind", string(e.Kind))}
	if e.SubDB != "" {
		attrs = append(attrs, slog.String("subdb", e.SubDB))
	}
	if e.Key != "" {
		attrs = append(attrs, slog.String("key", e.Key))
	}
	if e.ID != "" {
		attrs = append(attrs, slog.String("id", e.ID))
	}
	if e.Existing != "" {
		attrs = append(attrs, slog.String("existing", e.Existing))
	}
	if e.Field != "" {
		attrs = append(attrs, slog.String("field", e.Field))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.Any("error", e.Err))
	}
	logger.LogAttrs(ctx, e.Level(), e.String(), attrs...)
}

// ZapSink writes events to a zap.SugaredLogger, for hosts that log with zap.
type ZapSink struct {
	Sugar *zap.SugaredLogger
}

// NewZapSink wraps logger.
func NewZapSink(logger *zap.Logger) ZapSink {
	return ZapSink{Sugar: logger.Sugar()}
}

// Emit implements Sink.
func (s ZapSink) Emit(_ context.Context, e Event) {
	kv := []any{"kind", string(e.Kind), "subdb", e.SubDB, "key", e.Key, "id", e.ID}
	if e.Existing != "" {
		kv = append(kv, "existing", e.Existing)
	}
	if e.Field != "" {
		kv = append(kv, "field", e.Field)
	}
	if e.Err != nil {
		kv = append(kv, "error", e.Err)
	}

	switch e.Level() {
	case slog.LevelWarn:
		s.Sugar.Warnw(e.String(), kv...)
	case slog.LevelInfo:
		s.Sugar.Infow(e.String(), kv...)
	default:
		s.Sugar.Debugw(e.String(), kv...)
	}
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(context.Context, Event) {}

// Recorder keeps every event in memory.
//
// Thread-safety: Recorder is safe for concurrent use via internal mutex.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit implements Sink.
func (r *Recorder) Emit(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events in emission order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfKind returns the recorded events of kind k.
func (r *Recorder) OfKind(k Kind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Multi fans events out to several sinks.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

type multi []Sink

func (m multi) Emit(ctx context.Context, e Event) {
	for _, s := range m {
		s.Emit(ctx, e)
	}
}
