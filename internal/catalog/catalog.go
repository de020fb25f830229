// Package catalog holds the schema catalog: for each noun type, the ordered
// index definitions the engine maintains for it.
//
// A Catalog is built once at startup, from an in-memory Source or a schema
// file (see Load), and is read-only afterwards. Noun names are folded to
// lowercase on construction so lookups match the engine's canonical noun.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSchemaNotFound is returned when a noun has no configured indexes.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrIndexNotFound is returned when a noun has no index of the given name.
	ErrIndexNotFound = errors.New("index not found")
)

// Options control how an index key is composed.
//
// Only Lowercase has an effect. Multi and Unique are carried through from the
// schema source and reported, but the engine does not enforce them: every
// index is single-valued and first-writer-wins.
type Options struct {
	Multi     bool `json:"multi" yaml:"multi"`
	Unique    bool `json:"unique" yaml:"unique"`
	Lowercase bool `json:"lowercase" yaml:"lowercase"`
}

// IndexDefinition is a named, ordered rule for composing a key from fields.
// Field order is part of the key's identity.
type IndexDefinition struct {
	Name    string   `json:"name" yaml:"name"`
	Fields  []string `json:"fields" yaml:"fields"`
	Options Options  `json:"options" yaml:"options"`
}

// Schema is the per-noun value of a schema source.
type Schema struct {
	Indexes []IndexDefinition `json:"indexes" yaml:"indexes"`
}

// Source maps noun names to their schemas, as written in a schema file.
type Source map[string]Schema

// NounSchema is one noun's entry in the catalog.
type NounSchema struct {
	Noun    string
	Indexes []IndexDefinition
}

// Index returns the definition named name.
func (s NounSchema) Index(name string) (IndexDefinition, bool) {
	for _, idx := range s.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexDefinition{}, false
}

// Catalog is the read-only mapping from noun to NounSchema.
type Catalog struct {
	schemas map[string]NounSchema
}

// New validates src and builds a catalog from it.
// Errors are *LoadError values.
func New(src Source) (*Catalog, error) {
	c := &Catalog{schemas: make(map[string]NounSchema, len(src))}

	// Iterate in sorted order so the first reported error is deterministic.
	names := make([]string, 0, len(src))
	for name := range src {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		noun := strings.ToLower(name)
		if err := validateNoun(name); err != nil {
			return nil, err
		}
		if _, dup := c.schemas[noun]; dup {
			return nil, &LoadError{
				Code:    ErrCodeDuplicateNoun,
				Message: fmt.Sprintf("noun %q collides with another noun after lowercasing", name),
			}
		}

		schema := src[name]
		if err := validateIndexes(noun, schema.Indexes); err != nil {
			return nil, err
		}

		indexes := make([]IndexDefinition, len(schema.Indexes))
		for i, idx := range schema.Indexes {
			indexes[i] = IndexDefinition{
				Name:    idx.Name,
				Fields:  append([]string(nil), idx.Fields...),
				Options: idx.Options,
			}
		}
		c.schemas[noun] = NounSchema{Noun: noun, Indexes: indexes}
	}

	return c, nil
}

// Get returns the schema for noun. The lookup is case-insensitive.
func (c *Catalog) Get(noun string) (NounSchema, bool) {
	s, ok := c.schemas[strings.ToLower(noun)]
	return s, ok
}

// Index returns the named index of noun.
func (c *Catalog) Index(noun, index string) (IndexDefinition, error) {
	s, ok := c.Get(noun)
	if !ok {
		return IndexDefinition{}, fmt.Errorf("%w: %s", ErrSchemaNotFound, noun)
	}
	idx, ok := s.Index(index)
	if !ok {
		return IndexDefinition{}, fmt.Errorf("%w: %s.%s", ErrIndexNotFound, s.Noun, index)
	}
	return idx, nil
}

// DBName returns the sub-database name "<noun>.<index>" for a known noun.
// The index name is not checked against the schema.
func (c *Catalog) DBName(noun, index string) (string, error) {
	s, ok := c.Get(noun)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSchemaNotFound, noun)
	}
	return SubDBName(s.Noun, index), nil
}

// SubDBName formats a sub-database name.
func SubDBName(noun, index string) string {
	return strings.ToLower(noun) + "." + index
}

// Len returns the number of distinct nouns.
func (c *Catalog) Len() int {
	return len(c.schemas)
}

// IndexCount returns the total number of index definitions across all nouns.
func (c *Catalog) IndexCount() int {
	n := 0
	for _, s := range c.schemas {
		n += len(s.Indexes)
	}
	return n
}

// SubDBCapacity is the number of sub-databases the store must be opened with.
// It is at least Len()+1 and never less than the number of indexes, so every
// index of the catalog can be opened without reopening the store.
func (c *Catalog) SubDBCapacity() int {
	n := c.Len() + 1
	if ic := c.IndexCount(); ic > n {
		n = ic
	}
	return n
}

// Nouns returns the catalog's noun names in sorted order.
func (c *Catalog) Nouns() []string {
	nouns := make([]string, 0, len(c.schemas))
	for n := range c.schemas {
		nouns = append(nouns, n)
	}
	sort.Strings(nouns)
	return nouns
}

func validateNoun(name string) error {
	if name == "" {
		return &LoadError{Code: ErrCodeInvalidNoun, Message: "noun name is empty"}
	}
	if strings.Contains(name, ".") {
		return &LoadError{Code: ErrCodeInvalidNoun, Message: fmt.Sprintf("noun %q must not contain '.'", name)}
	}
	return nil
}

func validateIndexes(noun string, indexes []IndexDefinition) error {
	seen := make(map[string]bool, len(indexes))
	for i, idx := range indexes {
		if idx.Name == "" {
			return &LoadError{
				Code:    ErrCodeInvalidIndex,
				Message: fmt.Sprintf("%s: index %d has no name", noun, i),
			}
		}
		if seen[idx.Name] {
			return &LoadError{
				Code:    ErrCodeInvalidIndex,
				Message: fmt.Sprintf("%s: duplicate index %q", noun, idx.Name),
			}
		}
		seen[idx.Name] = true

		if len(idx.Fields) == 0 {
			return &LoadError{
				Code:    ErrCodeInvalidIndex,
				Message: fmt.Sprintf("%s.%s: index has no fields", noun, idx.Name),
			}
		}
		for _, f := range idx.Fields {
			if f == "" {
				return &LoadError{
					Code:    ErrCodeInvalidIndex,
					Message: fmt.Sprintf("%s.%s: empty field name", noun, idx.Name),
				}
			}
		}
	}
	return nil
}
