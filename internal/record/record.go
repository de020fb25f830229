// Package record defines the capability the index engine needs from a record.
//
// The engine never inspects record types at runtime. Every indexable type
// implements Record: it names its noun, reports its id, and answers field
// lookups by name through FieldAccessor.
package record

// FieldAccessor reads named fields off a record.
type FieldAccessor interface {
	// HasField reports whether name is a field declared by the record's type,
	// regardless of whether this instance holds a value for it.
	HasField(name string) bool

	// Field returns the canonical string value of a declared field.
	// ok is false when the field is declared but holds no value.
	Field(name string) (value string, ok bool)
}

// Record is a typed value the engine can index.
type Record interface {
	FieldAccessor

	// Noun returns the record type's name. The engine lowercases it.
	Noun() string

	// ID returns the record's identifier, the value stored in its index entries.
	ID() string
}
