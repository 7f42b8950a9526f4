package prefs

import (
	"fmt"
	"math"
	"reflect"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// exactKinds maps the concrete types produced by the plist decoder to kinds.
var exactKinds = map[reflect.Type]Kind{
	reflect.TypeOf(int64(0)):         KindInteger,
	reflect.TypeOf(uint64(0)):        KindInteger,
	reflect.TypeOf(int(0)):           KindInteger,
	reflect.TypeOf(float64(0)):       KindReal,
	reflect.TypeOf(""):               KindText,
	reflect.TypeOf(false):            KindBoolean,
	reflect.TypeOf(map[string]any{}): KindDict,
	reflect.TypeOf([]any{}):          KindArray,
	reflect.TypeOf([]byte{}):         KindData,
	timeType:                         KindDate,
}

type kindMatcher struct {
	kind  Kind
	match func(reflect.Type) bool
}

// fallbackKinds is consulted in order when a type is not in exactKinds.
// Boolean precedes Integer and Data precedes Array because a type can match
// both structurally; the first match wins.
var fallbackKinds = []kindMatcher{
	{KindBoolean, func(t reflect.Type) bool { return t.Kind() == reflect.Bool }},
	{KindInteger, func(t reflect.Type) bool {
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return true
		}
		return false
	}},
	{KindReal, func(t reflect.Type) bool { return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64 }},
	{KindText, func(t reflect.Type) bool { return t.Kind() == reflect.String }},
	{KindData, func(t reflect.Type) bool {
		return (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() == reflect.Uint8
	}},
	{KindDate, func(t reflect.Type) bool { return t.Kind() == reflect.Struct && t.ConvertibleTo(timeType) }},
	{KindDict, func(t reflect.Type) bool { return t.Kind() == reflect.Map && t.Key().Kind() == reflect.String }},
	{KindArray, func(t reflect.Type) bool { return t.Kind() == reflect.Slice || t.Kind() == reflect.Array }},
}

// KindOf resolves the kind of a native Go value: exact type first, then the
// ordered fallback list.
func KindOf(x any) (Kind, error) {
	if x == nil {
		return KindInvalid, fmt.Errorf("%w: <nil>", ErrLookupFailure)
	}
	t := reflect.TypeOf(x)
	if k, ok := exactKinds[t]; ok {
		return k, nil
	}
	for _, m := range fallbackKinds {
		if m.match(t) {
			return m.kind, nil
		}
	}
	return KindInvalid, fmt.Errorf("%w: %T", ErrLookupFailure, x)
}

// FromNative converts a decoded plist value (as produced by howett.net/plist
// when unmarshalling into an interface) into a Value.
func FromNative(x any) (Value, error) {
	kind, err := KindOf(x)
	if err != nil {
		return Value{}, err
	}
	rv := reflect.ValueOf(x)

	switch kind {
	case KindBoolean:
		return Boolean(rv.Bool()), nil
	case KindInteger:
		if rv.CanInt() {
			return Integer(rv.Int()), nil
		}
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: integer %d overflows int64", ErrTypeMismatch, u)
		}
		return Integer(int64(u)), nil
	case KindReal:
		return Real(rv.Float()), nil
	case KindText:
		return Text(rv.String()), nil
	case KindData:
		b := make([]byte, rv.Len())
		for i := range b {
			b[i] = byte(rv.Index(i).Uint())
		}
		return Data(b), nil
	case KindDate:
		return Date(rv.Convert(timeType).Interface().(time.Time)), nil
	case KindDict:
		d := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			ev, err := FromNative(iter.Value().Interface())
			if err != nil {
				return Value{}, fmt.Errorf("dict key %q: %w", iter.Key().String(), err)
			}
			d[iter.Key().String()] = ev
		}
		return Value{kind: KindDict, dict: d}, nil
	case KindArray:
		arr := make([]Value, rv.Len())
		for i := range arr {
			ev, err := FromNative(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("array index %d: %w", i, err)
			}
			arr[i] = ev
		}
		return Value{kind: KindArray, arr: arr}, nil
	}
	return Value{}, fmt.Errorf("%w: %T", ErrLookupFailure, x)
}

// TreeFromNative converts a decoded top-level plist dictionary.
func TreeFromNative(m map[string]any) (Tree, error) {
	t := make(Tree, len(m))
	for k, x := range m {
		v, err := FromNative(x)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		t[k] = v
	}
	return t, nil
}

// Native converts v back into plain Go values suitable for the plist
// encoder. Data and date values are rejected.
func (v Value) Native() (any, error) {
	switch v.kind {
	case KindInteger:
		return v.i, nil
	case KindReal:
		return v.r, nil
	case KindText:
		return v.s, nil
	case KindBoolean:
		return v.b, nil
	case KindDict:
		m := make(map[string]any, len(v.dict))
		for k, e := range v.dict {
			n, err := e.Native()
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			m[k] = n
		}
		return m, nil
	case KindArray:
		s := make([]any, len(v.arr))
		for i, e := range v.arr {
			n, err := e.Native()
			if err != nil {
				return nil, fmt.Errorf("array index %d: %w", i, err)
			}
			s[i] = n
		}
		return s, nil
	case KindData, KindDate:
		return nil, fmt.Errorf("%w: %s", ErrNotImplementedKind, v.kind)
	}
	return nil, fmt.Errorf("%w: invalid value", ErrTypeMismatch)
}
