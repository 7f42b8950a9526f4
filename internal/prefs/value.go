// Package prefs models the values stored in a preference domain.
// A Value is a tagged union over the property list types; a Tree is one
// snapshot of a domain's top-level keys.
package prefs

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Kind identifies the property list type held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindReal
	KindText
	KindBoolean
	KindDict
	KindArray
	// KindData and KindDate can be compared but never written.
	KindData
	KindDate
)

// String returns the plist element name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindText:
		return "string"
	case KindBoolean:
		return "bool"
	case KindDict:
		return "dict"
	case KindArray:
		return "array"
	case KindData:
		return "data"
	case KindDate:
		return "date"
	default:
		return "invalid"
	}
}

// IsStructured reports whether values of this kind are written as fragments.
func (k Kind) IsStructured() bool {
	return k == KindDict || k == KindArray
}

// Value is an immutable preference value. The zero Value is invalid.
type Value struct {
	kind Kind
	i    int64
	r    float64
	s    string
	b    bool
	dict map[string]Value
	arr  []Value
	data []byte
	date time.Time
}

// Tree is a full snapshot of a domain, keyed by top-level preference key.
type Tree map[string]Value

func Integer(v int64) Value   { return Value{kind: KindInteger, i: v} }
func Real(v float64) Value    { return Value{kind: KindReal, r: v} }
func Text(v string) Value     { return Value{kind: KindText, s: v} }
func Boolean(v bool) Value    { return Value{kind: KindBoolean, b: v} }
func Data(v []byte) Value     { return Value{kind: KindData, data: bytes.Clone(v)} }
func Date(v time.Time) Value  { return Value{kind: KindDate, date: v} }
func Array(vs ...Value) Value { return Value{kind: KindArray, arr: append([]Value(nil), vs...)} }

// Dict copies m into a new dictionary value.
func Dict(m map[string]Value) Value {
	d := make(map[string]Value, len(m))
	for k, v := range m {
		d[k] = v
	}
	return Value{kind: KindDict, dict: d}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Int() int64      { return v.i }
func (v Value) Float() float64  { return v.r }
func (v Value) Str() string     { return v.s }
func (v Value) Bool() bool      { return v.b }
func (v Value) Bytes() []byte   { return v.data }
func (v Value) Time() time.Time { return v.date }

// Elems returns the elements of an array value. Callers must not modify it.
func (v Value) Elems() []Value { return v.arr }

// Len returns the number of entries of a dict or elements of an array.
func (v Value) Len() int {
	switch v.kind {
	case KindDict:
		return len(v.dict)
	case KindArray:
		return len(v.arr)
	}
	return 0
}

// Lookup returns the dict entry for key.
func (v Value) Lookup(key string) (Value, bool) {
	e, ok := v.dict[key]
	return e, ok
}

// Entries returns the dict entries. Callers must not modify it.
func (v Value) Entries() map[string]Value { return v.dict }

// Keys returns the dict keys in lexicographic order.
func (v Value) Keys() []string {
	return sortedKeys(v.dict)
}

// Keys returns the tree's keys in lexicographic order.
func (t Tree) Keys() []string {
	return sortedKeys(t)
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Literal renders a scalar value the way `defaults write` expects it on
// the command line.
func (v Value) Literal() (string, error) {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10), nil
	case KindReal:
		return strconv.FormatFloat(v.r, 'f', -1, 64), nil
	case KindText:
		return v.s, nil
	case KindBoolean:
		return strconv.FormatBool(v.b), nil
	case KindData, KindDate:
		return "", fmt.Errorf("%w: %s literal", ErrNotImplementedKind, v.kind)
	default:
		return "", fmt.Errorf("%w: no literal form for %s", ErrTypeMismatch, v.kind)
	}
}

// String is a debugging representation, not a wire format.
func (v Value) String() string {
	switch v.kind {
	case KindInteger, KindReal, KindBoolean:
		s, _ := v.Literal()
		return s
	case KindText:
		return strconv.Quote(v.s)
	case KindData:
		return fmt.Sprintf("<data %d bytes>", len(v.data))
	case KindDate:
		return v.date.UTC().Format(time.RFC3339)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(e.String())
		}
		buf.WriteByte(']')
		return buf.String()
	case KindDict:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				buf.WriteString(", ")
			}
			fmt.Fprintf(&buf, "%q: %s", k, v.dict[k].String())
		}
		buf.WriteByte('}')
		return buf.String()
	}
	return "<invalid>"
}

// Equal reports structural equality. Values of different kinds are never
// equal, so Integer(1) and Real(1) differ. NaN reals equal each other so
// a tree holding one still diffs empty against itself.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInteger:
		return a.i == b.i
	case KindReal:
		return a.r == b.r || (math.IsNaN(a.r) && math.IsNaN(b.r))
	case KindText:
		return a.s == b.s
	case KindBoolean:
		return a.b == b.b
	case KindData:
		return bytes.Equal(a.data, b.data)
	case KindDate:
		return a.date.Equal(b.date)
	case KindArray:
		return ElemsEqual(a.arr, b.arr)
	case KindDict:
		return entriesEqual(a.dict, b.dict)
	}
	return true
}

// ElemsEqual compares two element slices pairwise.
func ElemsEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func entriesEqual(a, b map[string]Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}
