package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/lakeidx/internal/catalog"
	"github.com/roach88/lakeidx/internal/diag"
	"github.com/roach88/lakeidx/internal/keys"
	"github.com/roach88/lakeidx/internal/record"
	"github.com/roach88/lakeidx/internal/store"
)

// TxMode selects the transaction scope of Put.
type TxMode string

const (
	// TxPerIndex commits each index write separately. Fast, not atomic
	// across the indexes of one record.
	TxPerIndex TxMode = "per-index"

	// TxPerRecord commits all index writes of one record together.
	TxPerRecord TxMode = "per-record"
)

// ValidTxModes lists the accepted TxMode values.
var ValidTxModes = []TxMode{TxPerIndex, TxPerRecord}

// ParseTxMode validates s as a TxMode.
func ParseTxMode(s string) (TxMode, error) {
	for _, m := range ValidTxModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid tx mode %q: must be one of %v", s, ValidTxModes)
}

// Options configure an Engine. Zero values select the defaults:
// TxPerIndex, keys.EncodingEscaped and keys.UnknownFieldOmit.
type Options struct {
	TxMode        TxMode
	Encoding      keys.Encoding
	UnknownFields keys.UnknownFieldPolicy
}

func (o Options) withDefaults() Options {
	if o.TxMode == "" {
		o.TxMode = TxPerIndex
	}
	if o.Encoding == "" {
		o.Encoding = keys.EncodingEscaped
	}
	if o.UnknownFields == "" {
		o.UnknownFields = keys.UnknownFieldOmit
	}
	return o
}

// Validate reports unknown option values.
func (o Options) Validate() error {
	o = o.withDefaults()
	if _, err := ParseTxMode(string(o.TxMode)); err != nil {
		return err
	}
	return keys.Validate(o.Encoding, o.UnknownFields)
}

// Engine maintains the secondary indexes of a catalog in a store.
type Engine struct {
	catalog *catalog.Catalog
	store   *store.Store
	sink    diag.Sink
	opts    Options
	deriver *keys.Deriver
}

// New creates an engine. A nil sink discards diagnostics.
func New(cat *catalog.Catalog, st *store.Store, sink diag.Sink, opts Options) *Engine {
	if sink == nil {
		sink = diag.Discard
	}
	opts = opts.withDefaults()
	return &Engine{
		catalog: cat,
		store:   st,
		sink:    sink,
		opts:    opts,
		deriver: &keys.Deriver{
			Encoding:      opts.Encoding,
			UnknownFields: opts.UnknownFields,
			Sink:          sink,
		},
	}
}

// Catalog returns the engine's schema catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// pendingWrite is one derived index entry awaiting its store write.
type pendingWrite struct {
	index string
	subDB string
	key   []byte
}

// Put indexes rec and returns its id.
//
// A noun without a schema is not an error: Put emits a diagnostic and
// returns the id. Key derivation failures skip their index only. A store
// failure stops Put and is returned as *StoreError together with the id.
func (e *Engine) Put(ctx context.Context, rec record.Record) (string, error) {
	noun := strings.ToLower(rec.Noun())
	id := rec.ID()

	schema, ok := e.catalog.Get(noun)
	if !ok {
		e.sink.Emit(ctx, diag.Event{Kind: diag.KindSchemaNotFound, Noun: noun, ID: id})
		return id, nil
	}

	writes := e.derive(ctx, schema, rec, id)
	if len(writes) == 0 {
		return id, nil
	}

	var err error
	if e.opts.TxMode == TxPerRecord {
		err = e.putPerRecord(ctx, noun, id, writes)
	} else {
		err = e.putPerIndex(ctx, noun, id, writes)
	}
	return id, err
}

// derive computes the key of every index of schema, in catalog order,
// skipping indexes whose key cannot be derived.
func (e *Engine) derive(ctx context.Context, schema catalog.NounSchema, rec record.Record, id string) []pendingWrite {
	writes := make([]pendingWrite, 0, len(schema.Indexes))
	for _, def := range schema.Indexes {
		subDB := catalog.SubDBName(schema.Noun, def.Name)

		key, err := e.deriver.Derive(ctx, def, rec)
		if err != nil {
			ev := diag.Event{Kind: diag.KindKeyFailed, Noun: schema.Noun, Index: def.Name, SubDB: subDB, ID: id, Err: err}
			var fe *keys.FieldError
			if errors.As(err, &fe) {
				ev.Field = fe.Field
			}
			e.sink.Emit(ctx, ev)
			continue
		}
		writes = append(writes, pendingWrite{index: def.Name, subDB: subDB, key: key})
	}
	return writes
}

func (e *Engine) putPerIndex(ctx context.Context, noun, id string, writes []pendingWrite) error {
	for _, w := range writes {
		db, err := e.store.OpenSubDB(ctx, w.subDB)
		if err != nil {
			return &StoreError{Op: "put", Noun: noun, SubDB: w.subDB, ID: id, Err: err}
		}
		out, err := e.store.PutIfAbsent(ctx, db, w.key, id)
		if err != nil {
			return &StoreError{Op: "put", Noun: noun, SubDB: w.subDB, ID: id, Err: err}
		}
		e.emitOutcome(ctx, noun, id, w, out)
	}
	return nil
}

func (e *Engine) putPerRecord(ctx context.Context, noun, id string, writes []pendingWrite) error {
	// The transaction holds the store's only connection, so every
	// sub-database is opened before it begins.
	dbs := make([]store.SubDB, len(writes))
	for i, w := range writes {
		db, err := e.store.OpenSubDB(ctx, w.subDB)
		if err != nil {
			return &StoreError{Op: "put", Noun: noun, SubDB: w.subDB, ID: id, Err: err}
		}
		dbs[i] = db
	}

	outcomes := make([]store.Outcome, len(writes))
	err := e.store.Update(ctx, func(tx *store.Tx) error {
		for i, w := range writes {
			out, err := tx.PutIfAbsent(ctx, dbs[i], w.key, id)
			if err != nil {
				return &StoreError{Op: "put", Noun: noun, SubDB: w.subDB, ID: id, Err: err}
			}
			outcomes[i] = out
		}
		return nil
	})
	if err != nil {
		if !IsStoreError(err) {
			err = &StoreError{Op: "put", Noun: noun, ID: id, Err: err}
		}
		return err
	}

	for i, w := range writes {
		e.emitOutcome(ctx, noun, id, w, outcomes[i])
	}
	return nil
}

func (e *Engine) emitOutcome(ctx context.Context, noun, id string, w pendingWrite, out store.Outcome) {
	ev := diag.Event{Noun: noun, Index: w.index, SubDB: w.subDB, Key: string(w.key), ID: id}
	if out.Inserted {
		ev.Kind = diag.KindIndexInserted
	} else {
		ev.Kind = diag.KindIndexExists
		ev.Existing = out.Existing
	}
	e.sink.Emit(ctx, ev)
}

// Get returns the id stored under key in index of noun.
//
// Returns an error wrapping ErrUnknownIndex when the catalog has no such
// index, and ErrNotFound when the key was never written.
func (e *Engine) Get(ctx context.Context, noun, index string, key []byte) (string, error) {
	name, err := e.resolve(noun, index)
	if err != nil {
		return "", err
	}

	db, err := e.store.LookupSubDB(ctx, name)
	if err == nil {
		var id string
		id, err = e.store.Get(ctx, db, key)
		if err == nil {
			e.sink.Emit(ctx, diag.Event{Kind: diag.KindLookup, Noun: strings.ToLower(noun), Index: index, SubDB: name, Key: string(key), ID: id, Found: true})
			return id, nil
		}
	}

	if errors.Is(err, store.ErrNotFound) {
		e.sink.Emit(ctx, diag.Event{Kind: diag.KindLookup, Noun: strings.ToLower(noun), Index: index, SubDB: name, Key: string(key)})
		return "", fmt.Errorf("%s %q: %w", name, key, ErrNotFound)
	}
	return "", &StoreError{Op: "get", Noun: strings.ToLower(noun), SubDB: name, Err: err}
}

// Lookup composes a key from field values using the index's own options
// and encoding, then calls Get. Values are given in the index's field order.
func (e *Engine) Lookup(ctx context.Context, noun, index string, values ...string) (string, error) {
	def, err := e.catalog.Index(noun, index)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnknownIndex, err)
	}
	if len(values) != len(def.Fields) {
		return "", fmt.Errorf("%s.%s takes %d values %v, got %d", strings.ToLower(noun), index, len(def.Fields), def.Fields, len(values))
	}
	return e.Get(ctx, noun, index, keys.Compose(values, def.Options.Lowercase, e.opts.Encoding))
}

// Dump returns every entry of the index in key order. It is a debugging aid
// and is never called on the write path.
func (e *Engine) Dump(ctx context.Context, noun, index string) ([]store.Entry, error) {
	name, err := e.resolve(noun, index)
	if err != nil {
		return nil, err
	}

	db, err := e.store.LookupSubDB(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return []store.Entry{}, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "dump", Noun: strings.ToLower(noun), SubDB: name, Err: err}
	}

	entries, err := e.store.Dump(ctx, db)
	if err != nil {
		return nil, &StoreError{Op: "dump", Noun: strings.ToLower(noun), SubDB: name, Err: err}
	}
	return entries, nil
}

// IndexKey is the key one index derives for a record.
type IndexKey struct {
	Index string
	SubDB string
	Key   []byte
	Err   error // set when the key could not be derived
}

// Keys derives every index key of rec without writing anything.
// Returns nil if the noun has no schema.
func (e *Engine) Keys(ctx context.Context, rec record.Record) []IndexKey {
	schema, ok := e.catalog.Get(rec.Noun())
	if !ok {
		return nil
	}

	// Derive without diagnostics: this is a dry run.
	d := &keys.Deriver{Encoding: e.opts.Encoding, UnknownFields: e.opts.UnknownFields}

	out := make([]IndexKey, 0, len(schema.Indexes))
	for _, def := range schema.Indexes {
		key, err := d.Derive(ctx, def, rec)
		out = append(out, IndexKey{
			Index: def.Name,
			SubDB: catalog.SubDBName(schema.Noun, def.Name),
			Key:   key,
			Err:   err,
		})
	}
	return out
}

func (e *Engine) resolve(noun, index string) (string, error) {
	if _, err := e.catalog.Index(noun, index); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnknownIndex, err)
	}
	return e.catalog.DBName(noun, index)
}
