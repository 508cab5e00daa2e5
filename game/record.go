package game

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedRecord indicates the input is not a JSON object
var ErrMalformedRecord = errors.New("malformed game record")

// Field is a single named value of a record
type Field struct {
	Name  string
	Value Value
}

// fieldSet is an ordered, read-only mapping from field name to value
type fieldSet struct {
	fields []Field
	index  map[string]int
}

func newFieldSet(fields []Field) fieldSet {
	fs := fieldSet{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if i, ok := fs.index[f.Name]; ok {
			fs.fields[i].Value = f.Value
			continue
		}
		fs.index[f.Name] = len(fs.fields)
		fs.fields = append(fs.fields, f)
	}
	return fs
}

// Get returns the value of the named field
func (fs fieldSet) Get(name string) (Value, bool) {
	i, ok := fs.index[name]
	if !ok {
		return Value{}, false
	}
	return fs.fields[i].Value, true
}

// Has reports whether the named field is present
func (fs fieldSet) Has(name string) bool {
	_, ok := fs.index[name]
	return ok
}

// Len returns the number of fields
func (fs fieldSet) Len() int {
	return len(fs.fields)
}

// Fields returns a copy of the fields in their original order
func (fs fieldSet) Fields() []Field {
	out := make([]Field, len(fs.fields))
	copy(out, fs.fields)
	return out
}

// Names returns the field names in their original order
func (fs fieldSet) Names() []string {
	names := make([]string, len(fs.fields))
	for i, f := range fs.fields {
		names[i] = f.Name
	}
	return names
}

// Map returns the fields as plain Go values keyed by name
func (fs fieldSet) Map() map[string]any {
	m := make(map[string]any, len(fs.fields))
	for _, f := range fs.fields {
		m[f.Name] = f.Value.Interface()
	}
	return m
}

// MarshalJSON writes the fields as a JSON object, keeping their order
func (fs fieldSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fs.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RawRecord holds a game's fields exactly as the service sent them
type RawRecord struct {
	fieldSet
}

// NewRawRecord builds a raw record from fields. A repeated name keeps its
// first position and its last value.
func NewRawRecord(fields ...Field) RawRecord {
	return RawRecord{fieldSet: newFieldSet(fields)}
}

// ParseRawRecord decodes a JSON object into a raw record, preserving key order
func ParseRawRecord(data []byte) (RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return RawRecord{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return RawRecord{}, fmt.Errorf("%w: expected object, got %v", ErrMalformedRecord, tok)
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return RawRecord{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		name, ok := tok.(string)
		if !ok {
			return RawRecord{}, fmt.Errorf("%w: unexpected key %v", ErrMalformedRecord, tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return RawRecord{}, fmt.Errorf("%w: field %q: %v", ErrMalformedRecord, name, err)
		}
		value, err := parseValue(raw)
		if err != nil {
			return RawRecord{}, fmt.Errorf("%w: field %q: %v", ErrMalformedRecord, name, err)
		}
		fields = append(fields, Field{Name: name, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return RawRecord{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return RawRecord{}, fmt.Errorf("%w: trailing data after object", ErrMalformedRecord)
	}

	return NewRawRecord(fields...), nil
}

// Record is a game whose categorical fields have been rendered as labels
type Record struct {
	fieldSet
}

// Decorate builds a Record from raw, replacing each categorical field's
// value with its label. All other fields pass through unchanged.
func Decorate(raw RawRecord) Record {
	fields := raw.Fields()
	for i, f := range fields {
		if IsCategorical(f.Name) {
			fields[i].Value = StringValue(Decode(Category(f.Name), f.Value))
		}
	}
	return Record{fieldSet: newFieldSet(fields)}
}

// ParseRecord decodes and decorates a single JSON object
func ParseRecord(data []byte) (Record, error) {
	raw, err := ParseRawRecord(data)
	if err != nil {
		return Record{}, err
	}
	return Decorate(raw), nil
}

// Title returns the game's title, or "" when absent
func (r Record) Title() string {
	return r.text("title")
}

// Platform returns the platform abbreviation, or "" when absent
func (r Record) Platform() string {
	return r.text("abbr")
}

// InstanceID returns the game_inst_id field
func (r Record) InstanceID() (int64, bool) {
	v, ok := r.Get("game_inst_id")
	if !ok || v.Kind() != KindInt {
		return 0, false
	}
	return v.Int(), true
}

// Label returns the text of a field, or "" when it is absent or has no text form
func (r Record) Label(name string) string {
	return r.text(name)
}

func (r Record) text(name string) string {
	v, ok := r.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.Text()
	return s
}
