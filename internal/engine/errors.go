package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/lakeidx/internal/store"
)

var (
	// ErrNotFound is returned by Get for keys that were never written.
	ErrNotFound = store.ErrNotFound

	// ErrUnknownIndex is returned by Get and Dump when the noun or index is
	// not in the catalog.
	ErrUnknownIndex = errors.New("unknown index")
)

// StoreError reports a store-level failure during Put, Get or Dump.
//
// Indexes of the same record written before the failure remain written in
// TxPerIndex mode; in TxPerRecord mode none of them are.
type StoreError struct {
	// Op is the engine operation: "put", "get" or "dump".
	Op string

	// Noun and SubDB identify where the failure happened.
	Noun  string
	SubDB string

	// ID is the record being written, for Op "put".
	ID string

	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.SubDB != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.SubDB, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Noun, e.Err)
}

// Unwrap returns the underlying store error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError returns true if err is (or wraps) a *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsNotFound returns true if err reports an absent key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
