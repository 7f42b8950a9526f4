package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bolasblack/prefsniff/internal/convert"
	"github.com/bolasblack/prefsniff/internal/defaults"
	"github.com/bolasblack/prefsniff/internal/diff"
	"github.com/bolasblack/prefsniff/internal/prefs"
	"github.com/bolasblack/prefsniff/internal/sniff"
	"github.com/bolasblack/prefsniff/internal/watch"
)

func sampleResult(t *testing.T) *sniff.Result {
	t.Helper()
	before := prefs.Tree{"old": prefs.Integer(1), "n": prefs.Integer(1)}
	after := prefs.Tree{"new": prefs.Text("hello world"), "n": prefs.Integer(2)}
	delta := diff.ComputeDelta(before, after)
	cmds, err := defaults.Synthesize("com.example", delta, false)
	require.NoError(t, err)
	return &sniff.Result{
		ID:       "id-1",
		Domain:   "com.example",
		Before:   &convert.Snapshot{Path: "/p.plist", Raw: []byte("<integer>1</integer>\n")},
		After:    &convert.Snapshot{Path: "/p.plist", Raw: []byte("<integer>2</integer>\n")},
		Delta:    delta,
		Commands: cmds,
	}
}

func TestBuild(t *testing.T) {
	doc := Build(sampleResult(t), nil)

	assert.Equal(t, "id-1", doc.ID)
	assert.Equal(t, []string{"new"}, doc.Added)
	assert.Equal(t, []string{"old"}, doc.Removed)
	assert.Equal(t, []string{"n"}, doc.Modified)
	require.Len(t, doc.Commands, 3)
	assert.Equal(t, Command{
		Kind:  "write",
		Key:   "new",
		Argv:  []string{"defaults", "write", "com.example", "new", "-string", "hello world"},
		Shell: "defaults write com.example new -string 'hello world'",
	}, doc.Commands[0])
	assert.Equal(t, "delete", doc.Commands[1].Kind)
	assert.Empty(t, doc.Error)
}

func TestBuild_EmptyAndError(t *testing.T) {
	doc := Build(&sniff.Result{Domain: "d"}, errors.New("boom"))
	assert.NotNil(t, doc.Added)
	assert.NotNil(t, doc.Commands)
	assert.Equal(t, "boom", doc.Error)
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "xml", false)
	assert.Error(t, err)
}

func TestWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, "text", false)
	require.NoError(t, err)

	require.NoError(t, w.Result(sampleResult(t), nil))
	assert.Equal(t, strings.Join([]string{
		"defaults write com.example new -string 'hello world'",
		"defaults delete com.example old",
		"defaults write com.example n -int 2",
		"",
	}, "\n"), buf.String())
}

func TestWriter_TextWithDiff(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, "text", true)
	require.NoError(t, err)

	require.NoError(t, w.Result(sampleResult(t), nil))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "--- /p.plist (before)\n"), out)
	assert.Contains(t, out, "-<integer>1</integer>\n+<integer>2</integer>\n")
	assert.True(t, strings.HasSuffix(out, "defaults write com.example n -int 2\n"), out)
}

func TestWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, "json", false)
	require.NoError(t, err)

	require.NoError(t, w.Result(sampleResult(t), nil))
	require.NoError(t, w.Result(sampleResult(t), errors.New("partial")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, "com.example", doc.Domain)
	assert.Equal(t, "partial", doc.Error)
	assert.Len(t, doc.Commands, 3)
	assert.Empty(t, doc.Diff)
}

func TestWriter_YAML(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, "yaml", false)
	require.NoError(t, err)

	require.NoError(t, w.Result(sampleResult(t), nil))
	require.NoError(t, w.Event(watch.Event{Kind: watch.EventModified, Path: "/p.plist"}))

	dec := yaml.NewDecoder(strings.NewReader(buf.String()))
	var doc Document
	require.NoError(t, dec.Decode(&doc))
	assert.Equal(t, "id-1", doc.ID)
	assert.Equal(t, "defaults delete com.example old", doc.Commands[1].Shell)

	var ev map[string]string
	require.NoError(t, dec.Decode(&ev))
	assert.Equal(t, map[string]string{"event": "modified", "path": "/p.plist"}, ev)
}

func TestWriter_EventText(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, "text", false)
	require.NoError(t, err)

	require.NoError(t, w.Event(watch.Event{Kind: watch.EventCreated, Path: "/prefs/a.plist"}))
	assert.Equal(t, "created: /prefs/a.plist\n", buf.String())
}
