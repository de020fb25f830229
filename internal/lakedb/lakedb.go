// Package lakedb wires a schema catalog, the index environment, the index
// engine and the blob lake into one database handle.
//
// Open performs the startup sequence: create the index and lake
// directories, load the schema, size the index environment from the
// catalog, and open it. The environment's sub-database capacity is fixed at
// this point; adding nouns or indexes to the schema takes effect on the next
// Open.
package lakedb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/lakeidx/internal/catalog"
	"github.com/roach88/lakeidx/internal/config"
	"github.com/roach88/lakeidx/internal/diag"
	"github.com/roach88/lakeidx/internal/engine"
	"github.com/roach88/lakeidx/internal/ident"
	"github.com/roach88/lakeidx/internal/lake"
	"github.com/roach88/lakeidx/internal/record"
	"github.com/roach88/lakeidx/internal/store"
)

// DB is an open lakeidx database.
type DB struct {
	Catalog *catalog.Catalog
	Store   *store.Store
	Engine  *engine.Engine
	Lake    *lake.Lake
	IDs     ident.Generator
}

// Open opens the database described by cfg.
// A nil sink discards diagnostics; a nil gen uses ident.UUIDv7Generator.
func Open(cfg config.Config, sink diag.Sink, gen ident.Generator) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w: %w", store.ErrUnavailable, err)
	}
	lk, err := lake.Open(cfg.LakeDir)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	st, err := store.Open(filepath.Join(cfg.IndexDir, config.IndexFile), store.Options{MaxSubDBs: cat.SubDBCapacity()})
	if err != nil {
		return nil, err
	}

	if gen == nil {
		gen = ident.UUIDv7Generator{}
	}

	return &DB{
		Catalog: cat,
		Store:   st,
		Engine:  engine.New(cat, st, sink, cfg.EngineOptions()),
		Lake:    lk,
		IDs:     gen,
	}, nil
}

// Close closes the index environment.
func (db *DB) Close() error {
	return db.Store.Close()
}

// Document is a record whose id can be assigned before it is written.
type Document interface {
	record.Record
	SetID(id string)
}

// Write stores content as the blob of doc and indexes doc.
//
// A document without an id is given a fresh one from the generator before
// anything is written. The blob is written before the index entries, so an
// index entry never points at a missing blob.
func (db *DB) Write(ctx context.Context, doc Document, content []byte) (string, error) {
	if doc.ID() == "" {
		doc.SetID(db.IDs.New(doc.Noun()))
	}
	id := doc.ID()

	if err := db.Lake.Write(id, content); err != nil {
		return id, err
	}
	return db.Engine.Put(ctx, doc)
}

// Read looks key up in noun's index and returns the id with its blob.
func (db *DB) Read(ctx context.Context, noun, index string, key []byte) (string, []byte, error) {
	id, err := db.Engine.Get(ctx, noun, index, key)
	if err != nil {
		return "", nil, err
	}
	data, err := db.Lake.Read(id)
	if err != nil {
		return id, nil, err
	}
	return id, data, nil
}

// IsNotFound reports whether err is a missing index key or blob.
func IsNotFound(err error) bool {
	return errors.Is(err, engine.ErrNotFound) || errors.Is(err, lake.ErrNotFound)
}
