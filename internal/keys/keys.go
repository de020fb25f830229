// Package keys derives composite index keys from records.
//
// A key is the ordered concatenation of an index's field values, joined with
// ':' and optionally lowercased. Two policies shape the result:
//
//   - Encoding: EncodingPlain joins values as-is, so "a:b" + "c" and
//     "a" + "b:c" produce the same key. EncodingEscaped escapes '\' and ':'
//     inside each value and is byte-identical to plain when no value contains
//     either character.
//   - UnknownFieldPolicy: an index naming a field the record's type does not
//     declare either drops that field from the key (UnknownFieldOmit) or fails
//     the index (UnknownFieldFail). Omitting yields shorter keys that collide
//     more easily.
//
// A declared field with no value always fails the index with
// MissingFieldValue.
package keys

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/lakeidx/internal/catalog"
	"github.com/roach88/lakeidx/internal/diag"
	"github.com/roach88/lakeidx/internal/record"
)

// Separator joins key parts.
const Separator = ':'

// Encoding selects how field values are joined.
type Encoding string

const (
	EncodingEscaped Encoding = "escaped"
	EncodingPlain   Encoding = "plain"
)

// UnknownFieldPolicy selects what happens to fields the type does not declare.
type UnknownFieldPolicy string

const (
	UnknownFieldOmit UnknownFieldPolicy = "omit"
	UnknownFieldFail UnknownFieldPolicy = "fail"
)

// FieldErrorKind categorises key derivation failures.
type FieldErrorKind string

const (
	// MissingFieldValue: the field is declared but has no value.
	MissingFieldValue FieldErrorKind = "MISSING_FIELD_VALUE"

	// FieldNotOnType: the field is not declared by the record's type.
	FieldNotOnType FieldErrorKind = "FIELD_NOT_ON_TYPE"
)

// FieldError reports why a key could not be derived for one index.
type FieldError struct {
	Kind  FieldErrorKind
	Field string
	Index string
}

func (e *FieldError) Error() string {
	switch e.Kind {
	case MissingFieldValue:
		return fmt.Sprintf("%s: field %q has no value for index %q", e.Kind, e.Field, e.Index)
	default:
		return fmt.Sprintf("%s: field %q is not on the type for index %q", e.Kind, e.Field, e.Index)
	}
}

// IsMissingFieldValue reports whether err is a MissingFieldValue FieldError.
func IsMissingFieldValue(err error) bool {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Kind == MissingFieldValue
	}
	return false
}

// IsFieldNotOnType reports whether err is a FieldNotOnType FieldError.
func IsFieldNotOnType(err error) bool {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Kind == FieldNotOnType
	}
	return false
}

// Deriver composes index keys. The zero value uses EncodingEscaped,
// UnknownFieldOmit and discards diagnostics.
type Deriver struct {
	Encoding      Encoding
	UnknownFields UnknownFieldPolicy
	Sink          diag.Sink
}

// Derive composes the key for def from rec.
func (d *Deriver) Derive(ctx context.Context, def catalog.IndexDefinition, rec record.Record) ([]byte, error) {
	parts := make([]string, 0, len(def.Fields))
	for _, field := range def.Fields {
		if !rec.HasField(field) {
			if d.UnknownFields == UnknownFieldFail {
				return nil, &FieldError{Kind: FieldNotOnType, Field: field, Index: def.Name}
			}
			d.emit(ctx, diag.Event{
				Kind:  diag.KindFieldNotOnType,
				Noun:  strings.ToLower(rec.Noun()),
				Index: def.Name,
				SubDB: catalog.SubDBName(rec.Noun(), def.Name),
				ID:    rec.ID(),
				Field: field,
			})
			continue
		}

		value, ok := rec.Field(field)
		if !ok {
			return nil, &FieldError{Kind: MissingFieldValue, Field: field, Index: def.Name}
		}
		parts = append(parts, value)
	}

	return Compose(parts, def.Options.Lowercase, d.Encoding), nil
}

// Compose joins parts into a key. Each part is NFC normalized first, so
// Derive and lookups by raw value produce the same bytes.
func Compose(parts []string, lowercase bool, enc Encoding) []byte {
	normalized := make([]string, len(parts))
	for i, p := range parts {
		p = norm.NFC.String(p)
		if enc != EncodingPlain {
			p = escape(p)
		}
		normalized[i] = p
	}
	parts = normalized

	key := strings.Join(parts, string(Separator))
	if lowercase {
		key = cases.Lower(language.Und).String(key)
	}
	return []byte(key)
}

// Split reverses Compose for EncodingEscaped keys. Lowercasing is not undone.
func Split(key []byte) []string {
	var (
		parts []string
		cur   strings.Builder
		esc   bool
	)
	for _, r := range string(key) {
		switch {
		case esc:
			cur.WriteRune(r)
			esc = false
		case r == '\\':
			esc = true
		case r == Separator:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(parts, cur.String())
}

var escaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`)

func escape(s string) string {
	if !strings.ContainsAny(s, `\:`) {
		return s
	}
	return escaper.Replace(s)
}

func (d *Deriver) emit(ctx context.Context, e diag.Event) {
	if d.Sink != nil {
		d.Sink.Emit(ctx, e)
	}
}

// Validate checks that enc and policy are known values.
func Validate(enc Encoding, policy UnknownFieldPolicy) error {
	switch enc {
	case EncodingEscaped, EncodingPlain:
	default:
		return fmt.Errorf("unknown key encoding %q: must be %q or %q", enc, EncodingEscaped, EncodingPlain)
	}
	switch policy {
	case UnknownFieldOmit, UnknownFieldFail:
	default:
		return fmt.Errorf("unknown field policy %q: must be %q or %q", policy, UnknownFieldOmit, UnknownFieldFail)
	}
	return nil
}
