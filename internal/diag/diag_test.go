package diag

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEvent_String(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "inserted",
			event: Event{Kind: KindIndexInserted, SubDB: "location.byName", Key: "paris", ID: "abc123"},
			want:  "writing location.byName key:paris value: abc123",
		},
		{
			name:  "exists",
			event: Event{Kind: KindIndexExists, SubDB: "location.byName", Key: "paris", ID: "xyz789", Existing: "abc123"},
			want:  `exists: location.byName "paris": "abc123" (dropped xyz789)`,
		},
		{
			name:  "field not on type",
			event: Event{Kind: KindFieldNotOnType, SubDB: "location.byName", Field: "zip"},
			want:  "warning: field zip is missing from location.byName",
		},
		{
			name:  "lookup miss",
			event: Event{Kind: KindLookup, SubDB: "location.byName", Key: "rome"},
			want:  `lookup location.byName "rome": not found`,
		},
		{
			name:  "lookup hit",
			event: Event{Kind: KindLookup, SubDB: "location.byName", Key: "paris", ID: "abc123", Found: true},
			want:  `lookup location.byName "paris": abc123`,
		},
		{
			name:  "schema not found",
			event: Event{Kind: KindSchemaNotFound, Noun: "vehicle", ID: "v1"},
			want:  "no schema for vehicle, record v1 not indexed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.String())
		})
	}
}

func TestEvent_Level(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, Event{Kind: KindKeyFailed}.Level())
	assert.Equal(t, slog.LevelWarn, Event{Kind: KindFieldNotOnType}.Level())
	assert.Equal(t, slog.LevelInfo, Event{Kind: KindIndexExists}.Level())
	assert.Equal(t, slog.LevelDebug, Event{Kind: KindIndexInserted}.Level())
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := SlogSink{Logger: logger}

	sink.Emit(context.Background(), Event{Kind: KindIndexInserted, SubDB: "location.byName", Key: "paris", ID: "abc123"})
	sink.Emit(context.Background(), Event{Kind: KindKeyFailed, SubDB: "location.byName", ID: "abc123", Err: errors.New("boom")})

	out := buf.String()
	assert.Contains(t, out, "kind=index_inserted")
	assert.Contains(t, out, "subdb=location.byName")
	assert.Contains(t, out, "key=paris")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "error=boom")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestZapSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := NewZapSink(zap.New(core))

	sink.Emit(context.Background(), Event{Kind: KindIndexExists, SubDB: "location.byName", Key: "paris", ID: "xyz789", Existing: "abc123"})
	sink.Emit(context.Background(), Event{Kind: KindFieldNotOnType, SubDB: "location.byName", Field: "zip"})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "abc123", entries[0].ContextMap()["existing"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "zip", entries[1].ContextMap()["field"])
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	r.Emit(ctx, Event{Kind: KindIndexInserted, Key: "a"})
	r.Emit(ctx, Event{Kind: KindIndexExists, Key: "a"})
	r.Emit(ctx, Event{Kind: KindIndexInserted, Key: "b"})

	assert.Len(t, r.Events(), 3)
	assert.Len(t, r.OfKind(KindIndexInserted), 2)
	assert.Len(t, r.OfKind(KindLookup), 0)

	r.Reset()
	assert.Empty(t, r.Events())
}

func TestMulti(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	sink := Multi(a, b, Discard)

	sink.Emit(context.Background(), Event{Kind: KindLookup})

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}
