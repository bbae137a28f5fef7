// Package records defines the row and record types that flow through the
// scrape pipeline.
//
// A RawRow is what the table selector produces: for every field, the raw
// markup fragments matched under one table row. A Record is the normalized
// form. Two of its fields (GDP, Year) are Values: a small tagged union that is
// either numeric or the cleaned source text when parsing failed. Consumers
// must switch on Kind before using a Value.
package records

import (
	"encoding/json"
	"strconv"
)

// Kind discriminates the variants of a Value.
type Kind uint8

const (
	// KindRaw holds the cleaned source string (parsing fell back).
	KindRaw Kind = iota
	// KindFloat holds a float64.
	KindFloat
	// KindInt holds an int64.
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	default:
		return "raw"
	}
}

// Value is either a number or the raw string it could not be parsed from.
// The zero Value is Raw("").
type Value struct {
	kind Kind
	f    float64
	i    int64
	raw  string
}

// Raw returns a Value carrying the unparsed, cleaned source text.
func Raw(s string) Value { return Value{kind: KindRaw, raw: s} }

// Float returns a floating point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// Float returns the float and true when v is KindFloat.
func (v Value) Float() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// Int returns the integer and true when v is KindInt.
func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// Raw returns the fallback string when v is KindRaw, "" otherwise.
func (v Value) Raw() string {
	if v.kind != KindRaw {
		return ""
	}
	return v.raw
}

// String renders v for logs and text output.
func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	default:
		return v.raw
	}
}

// SQL returns the value handed to a database driver: float64, int64 or string.
func (v Value) SQL() any {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return v.i
	default:
		return v.raw
	}
}

// MarshalJSON encodes numeric kinds as JSON numbers and KindRaw as a string.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindFloat:
		return json.Marshal(v.f)
	case KindInt:
		return json.Marshal(v.i)
	default:
		return json.Marshal(v.raw)
	}
}
