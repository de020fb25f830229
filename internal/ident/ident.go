// Package ident mints record identifiers.
//
// An identifier is 26 printable characters: a UUIDv7 rendered in Crockford
// base32, so identifiers minted later sort after earlier ones. Offsets 6 and 7
// are overwritten with the first two bytes of the owning noun's lowercase
// name. Those two positions therefore carry a type tag instead of entropy,
// and two nouns sharing their first two letters share the tag.
//
// The identifier is both the value stored in every index entry of a record
// and the file name of the record's blob in the lake.
package ident

import (
	"encoding/base32"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	// Length is the length of every identifier minted by UUIDv7Generator.
	Length = 26

	// TagOffset is the byte offset of the two-byte noun tag.
	TagOffset = 6

	// TagLength is the number of bytes reserved for the noun tag.
	TagLength = 2
)

// Crockford's alphabet is in ascending ASCII order, so byte-wise comparison of
// encoded ids matches comparison of the underlying UUIDs.
var encoding = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

// Generator mints identifiers for records of a noun type.
type Generator interface {
	New(noun string) string
}

// UUIDv7Generator generates time-sortable identifiers tagged with their noun.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// New creates a new identifier for noun.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) New(noun string) string {
	u := uuid.Must(uuid.NewV7())
	return WithTag(encoding.EncodeToString(u[:]), noun)
}

// New mints an identifier with the default generator.
func New(noun string) string {
	return UUIDv7Generator{}.New(noun)
}

// WithTag overwrites the tag positions of id with the first bytes of the
// lowercased noun. A noun shorter than TagLength overwrites fewer bytes;
// an id too short to hold the tag is returned unchanged.
func WithTag(id, noun string) string {
	if len(id) < TagOffset+TagLength {
		return id
	}
	tag := strings.ToLower(noun)
	if len(tag) > TagLength {
		tag = tag[:TagLength]
	}
	b := []byte(id)
	copy(b[TagOffset:], tag)
	return string(b)
}

// Tag returns the two tag bytes embedded in id.
func Tag(id string) string {
	if len(id) < TagOffset+TagLength {
		return ""
	}
	return id[TagOffset : TagOffset+TagLength]
}

// HasTag reports whether id carries the tag of noun.
func HasTag(id, noun string) bool {
	want := strings.ToLower(noun)
	if len(want) > TagLength {
		want = want[:TagLength]
	}
	if len(id) < TagOffset+len(want) {
		return false
	}
	return id[TagOffset:TagOffset+len(want)] == want
}

// FixedGenerator returns predetermined identifiers for testing.
//
// The ids are returned verbatim; no tag is applied, so tests control the
// exact bytes stored in the index.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// New returns the next predetermined id.
//
// Panics if all ids have been consumed. A test that mints more ids than it
// declared is misconfigured.
func (g *FixedGenerator) New(noun string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
