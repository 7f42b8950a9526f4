package prefs

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same integer", Integer(1), Integer(1), true},
		{"different integer", Integer(1), Integer(2), false},
		{"integer vs real", Integer(1), Real(1), false},
		{"nan equals nan", Real(math.NaN()), Real(math.NaN()), true},
		{"nan vs number", Real(math.NaN()), Real(0), false},
		{"text", Text("a"), Text("a"), true},
		{"bool", Boolean(true), Boolean(false), false},
		{"data", Data([]byte{1, 2}), Data([]byte{1, 2}), true},
		{"date", Date(when), Date(when.In(time.Local)), true},
		{"array order matters", Array(Integer(1), Integer(2)), Array(Integer(2), Integer(1)), false},
		{"array equal", Array(Integer(1), Text("x")), Array(Integer(1), Text("x")), true},
		{
			"nested dict",
			Dict(map[string]Value{"a": Dict(map[string]Value{"b": Integer(1)})}),
			Dict(map[string]Value{"a": Dict(map[string]Value{"b": Integer(1)})}),
			true,
		},
		{
			"dict extra key",
			Dict(map[string]Value{"a": Integer(1)}),
			Dict(map[string]Value{"a": Integer(1), "b": Integer(2)}),
			false,
		},
		{"invalid values", Value{}, Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a), "Equal must be symmetric")
		})
	}
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Integer(-42), "-42"},
		{Real(2), "2"},
		{Real(0.25), "0.25"},
		{Text("hello world"), "hello world"},
		{Boolean(true), "true"},
		{Boolean(false), "false"},
	}
	for _, tt := range tests {
		got, err := tt.v.Literal()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestLiteral_UnsupportedKinds(t *testing.T) {
	_, err := Data([]byte("x")).Literal()
	assert.True(t, errors.Is(err, ErrNotImplementedKind))

	_, err = Date(time.Now()).Literal()
	assert.True(t, errors.Is(err, ErrNotImplementedKind))

	_, err = Array().Literal()
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestDictCopiesInput(t *testing.T) {
	m := map[string]Value{"a": Integer(1)}
	d := Dict(m)
	m["b"] = Integer(2)

	assert.Equal(t, 1, d.Len())
	_, ok := d.Lookup("b")
	assert.False(t, ok)
}

func TestKeysSorted(t *testing.T) {
	tree := Tree{"b": Integer(1), "a": Integer(2), "c": Integer(3)}
	assert.Equal(t, []string{"a", "b", "c"}, tree.Keys())

	d := Dict(map[string]Value{"z": Integer(1), "y": Integer(2)})
	assert.Equal(t, []string{"y", "z"}, d.Keys())
}

func TestDomainFromPath(t *testing.T) {
	assert.Equal(t, "com.apple.dock", DomainFromPath("/Users/me/Library/Preferences/com.apple.dock.plist"))
	assert.Equal(t, "com.apple.dock", DomainFromPath("com.apple.dock"))
	assert.Equal(t, "ByHost.thing", DomainFromPath("prefs/ByHost.thing.plist"))
}
