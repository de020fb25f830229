package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/lakeidx/internal/ident"
)

// SequenceGenerator mints deterministic identifiers for tests.
//
// Each id is a zero-padded counter of ident.Length digits carrying the noun
// tag, so ids minted by the same scenario are identical across runs and
// sort in minting order.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu  sync.Mutex
	seq int64
}

// NewSequenceGenerator creates a generator starting at 0.
//
// The first call to New() returns the id for sequence 1.
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{}
}

// New increments the sequence and returns the id for noun.
func (g *SequenceGenerator) New(noun string) string {
	g.mu.Lock()
	g.seq++
	seq := g.seq
	g.mu.Unlock()
	return ident.WithTag(fmt.Sprintf("%0*d", ident.Length, seq), noun)
}

// Current returns the current sequence number without incrementing.
func (g *SequenceGenerator) Current() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset resets the sequence to 0.
//
// After Reset(), the next id minted is the same as the first one.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

var _ ident.Generator = (*SequenceGenerator)(nil)
