package game

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Kind discriminates the variants a Value can hold
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	// KindRaw holds a nested JSON object or array as compact JSON text
	KindRaw
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Value is an immutable field value as received from the service
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

// NullValue returns the JSON null value
func NullValue() Value { return Value{kind: KindNull} }

// StringValue wraps a string
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// IntValue wraps an integer
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue wraps a non-integral number
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// BoolValue wraps a boolean
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

func rawValue(data []byte) Value {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return Value{kind: KindRaw, s: string(data)}
	}
	return Value{kind: KindRaw, s: buf.String()}
}

// Kind returns the variant held by v
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload, or "" for other kinds
func (v Value) Str() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// Int returns the integer payload, or 0 for other kinds
func (v Value) Int() int64 { return v.i }

// Float returns the number payload of float and int values
func (v Value) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Bool returns the boolean payload, or false for other kinds
func (v Value) Bool() bool { return v.b }

// Text returns the textual form used for pattern matching.
// Numbers and booleans are coerced to their string form; null and nested
// JSON have no textual form.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, true
	case KindInt:
		return strconv.FormatInt(v.i, 10), true
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// Interface returns v as a plain Go value (string, int, float64, bool, nil,
// or the decoded form of nested JSON).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return int(v.i)
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindRaw:
		var out any
		if err := json.Unmarshal([]byte(v.s), &out); err != nil {
			return v.s
		}
		return out
	default:
		return nil
	}
}

// String implements fmt.Stringer
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindRaw:
		return v.s
	default:
		s, _ := v.Text()
		return s
	}
}

// Equal reports whether two values hold the same variant and payload
func (v Value) Equal(o Value) bool {
	return v == o
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	case KindRaw:
		return []byte(v.s), nil
	default:
		return []byte("null"), nil
	}
}

// parseValue classifies a single JSON value
func parseValue(data json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Value{}, ErrMalformedRecord
	}

	switch trimmed[0] {
	case 'n':
		return NullValue(), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case '{', '[':
		return rawValue(trimmed), nil
	}

	num := string(trimmed)
	if i, err := strconv.ParseInt(num, 10, 64); err == nil {
		return IntValue(i), nil
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Value{}, err
	}
	return FloatValue(f), nil
}
