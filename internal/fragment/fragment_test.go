package fragment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bolasblack/prefsniff/internal/prefs"
)

func TestSerialize(t *testing.T) {
	tests := []struct {
		name string
		in   prefs.Value
		want Fragment
	}{
		{
			"single entry dict",
			prefs.Dict(map[string]prefs.Value{"enabled": prefs.Integer(1)}),
			"<dict><key>enabled</key><integer>1</integer></dict>",
		},
		{
			"mixed array",
			prefs.Array(prefs.Integer(1), prefs.Text("x"), prefs.Boolean(true)),
			"<array><integer>1</integer><string>x</string><true/></array>",
		},
		{"empty array", prefs.Array(), "<array/>"},
		{"scalar real", prefs.Real(2.5), "<real>2.5</real>"},
		{"scalar false", prefs.Boolean(false), "<false/>"},
		{"escaped text", prefs.Text("a<b&c"), "<string>a&lt;b&amp;c</string>"},
		{
			"nested",
			prefs.Dict(map[string]prefs.Value{
				"sub": prefs.Dict(map[string]prefs.Value{
					"list": prefs.Array(prefs.Array(prefs.Integer(7))),
				}),
			}),
			"<dict><key>sub</key><dict><key>list</key><array><array><integer>7</integer></array></array></dict></dict>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Serialize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerialize_RejectsUnsupportedKinds(t *testing.T) {
	_, err := Serialize(prefs.Data([]byte("x")))
	assert.True(t, errors.Is(err, prefs.ErrNotImplementedKind))

	_, err = Serialize(prefs.Array(prefs.Date(time.Now())))
	assert.True(t, errors.Is(err, prefs.ErrNotImplementedKind))
}

func TestSerialize_RoundTrip(t *testing.T) {
	values := []prefs.Value{
		prefs.Dict(map[string]prefs.Value{
			"dictkey1": prefs.Real(2),
			"dictkey2": prefs.Dict(map[string]prefs.Value{"subkey": prefs.Text("7")}),
			"flags":    prefs.Array(prefs.Boolean(true), prefs.Boolean(false)),
			"neg":      prefs.Integer(-12),
			"spaces":   prefs.Text("  padded  "),
			"empty":    prefs.Text(""),
		}),
		prefs.Array(),
		prefs.Dict(nil),
		prefs.Array(prefs.Dict(map[string]prefs.Value{"a": prefs.Array(prefs.Text("multi\nline"))})),
	}
	for _, v := range values {
		f, err := Serialize(v)
		require.NoError(t, err)

		back, err := Parse(f)
		require.NoError(t, err, "fragment %s", f)
		assert.True(t, prefs.Equal(v, back), "round trip of %s gave %s via %s", v, back, f)
	}
}

func TestExtract(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>a</key>
	<string> keep me </string>
	<key>b</key>
	<array>
		<true/>
	</array>
</dict>
</plist>
`
	got, err := Extract([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, Fragment("<dict><key>a</key><string> keep me </string><key>b</key><array><true/></array></dict>"), got)
}

func TestExtract_RequiresExactlyOneElement(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no children", `<plist version="1.0"></plist>`},
		{"whitespace only", "<plist version=\"1.0\">\n\t\n</plist>"},
		{"two children", `<plist version="1.0"><integer>1</integer><integer>2</integer></plist>`},
		{"wrong root", `<dict><key>a</key><integer>1</integer></dict>`},
		{"no root", `<?xml version="1.0"?>`},
		{"stray text", `<plist version="1.0">oops<integer>1</integer></plist>`},
		{"truncated", `<plist version="1.0"><dict><key>a</key>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, prefs.ErrSerialization), "got %v", err)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("<dict><key>a</key>")
	assert.True(t, errors.Is(err, prefs.ErrSerialization))
}
