package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// IDField is the field every document carries its identifier in.
const IDField = "id"

// Document is a schemaless record decoded from a single-key JSON envelope:
//
//	{"location": {"id": "01J...", "name": "Paris"}}
//
// The envelope key is the noun. Every key of the inner object is a declared
// field; null and empty-string values count as holding no value. Fields may
// also be declared without a value via Declare.
type Document struct {
	noun   string
	fields map[string]any
}

// NewDocument creates a document of noun holding fields.
// The map is copied; the document never aliases caller state.
func NewDocument(noun string, fields map[string]any) *Document {
	d := &Document{noun: noun, fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		d.fields[k] = v
	}
	return d
}

// ParseDocument decodes a JSON envelope into a Document.
// Numbers keep their textual form so keys derived from them are exact.
func ParseDocument(data []byte) (*Document, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if len(envelope) != 1 {
		return nil, fmt.Errorf("parse document: envelope must have exactly one noun key, got %d", len(envelope))
	}

	var noun string
	var body json.RawMessage
	for k, v := range envelope {
		noun, body = k, v
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("parse document %q: %w", noun, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("parse document %q: body must be an object", noun)
	}

	return &Document{noun: noun, fields: fields}, nil
}

// Noun returns the envelope key.
func (d *Document) Noun() string {
	return d.noun
}

// ID returns the "id" field, or "" when unset.
func (d *Document) ID() string {
	v, _ := d.Field(IDField)
	return v
}

// SetID stores id in the "id" field.
func (d *Document) SetID(id string) {
	d.fields[IDField] = id
}

// Declare adds fields to the document's type without giving them values.
// Existing fields are left untouched.
func (d *Document) Declare(names ...string) {
	for _, name := range names {
		if _, ok := d.fields[name]; !ok {
			d.fields[name] = nil
		}
	}
}

// HasField implements FieldAccessor.
func (d *Document) HasField(name string) bool {
	_, ok := d.fields[name]
	return ok
}

// Field implements FieldAccessor.
func (d *Document) Field(name string) (string, bool) {
	v, ok := d.fields[name]
	if !ok || v == nil {
		return "", false
	}
	s, err := canonicalString(v)
	if err != nil || s == "" {
		return "", false
	}
	return s, true
}

// FieldNames returns the declared field names in sorted order.
func (d *Document) FieldNames() []string {
	names := make([]string, 0, len(d.fields))
	for k := range d.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the document back into its envelope form.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]any{d.noun: d.fields})
}

// canonicalString renders a decoded JSON value as the string used in keys.
// Objects and arrays render as canonical JSON.
func canonicalString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		b, err := MarshalCanonical(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
