// Package report renders sniffing results for the terminal or for tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/bolasblack/prefsniff/internal/config"
	"github.com/bolasblack/prefsniff/internal/sniff"
	"github.com/bolasblack/prefsniff/internal/watch"
)

// Command is the serialized form of one defaults invocation.
type Command struct {
	Kind  string   `json:"kind" yaml:"kind"`
	Key   string   `json:"key" yaml:"key"`
	Argv  []string `json:"argv" yaml:"argv"`
	Shell string   `json:"shell" yaml:"shell"`
}

// Document is the serialized form of one observation.
type Document struct {
	ID       string    `json:"id" yaml:"id"`
	Domain   string    `json:"domain" yaml:"domain"`
	Added    []string  `json:"added" yaml:"added"`
	Removed  []string  `json:"removed" yaml:"removed"`
	Modified []string  `json:"modified" yaml:"modified"`
	Commands []Command `json:"commands" yaml:"commands"`
	Diff     string    `json:"diff,omitempty" yaml:"diff,omitempty"`
	Error    string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Build converts a result and its synthesis error into a Document.
// Key lists are sorted and never nil.
func Build(res *sniff.Result, synthErr error) Document {
	doc := Document{
		ID:       res.ID,
		Domain:   res.Domain,
		Added:    []string{},
		Removed:  []string{},
		Modified: []string{},
		Commands: []Command{},
	}
	if res.Delta != nil {
		for k := range res.Delta.Added {
			doc.Added = append(doc.Added, k)
		}
		doc.Removed = append(doc.Removed, res.Delta.Removed...)
		for k := range res.Delta.Modified {
			doc.Modified = append(doc.Modified, k)
		}
		sort.Strings(doc.Added)
		sort.Strings(doc.Removed)
		sort.Strings(doc.Modified)
	}
	for _, c := range res.Commands {
		doc.Commands = append(doc.Commands, Command{
			Kind:  c.Kind.String(),
			Key:   c.Key,
			Argv:  c.Argv(false),
			Shell: c.String(),
		})
	}
	if synthErr != nil {
		doc.Error = synthErr.Error()
	}
	return doc
}

// Writer prints observations in one format.
type Writer struct {
	Out    io.Writer
	Format string
	// ShowDiff includes the unified XML diff.
	ShowDiff bool
}

// New returns a Writer, rejecting unknown formats.
func New(out io.Writer, format string, showDiff bool) (*Writer, error) {
	switch format {
	case config.FormatText, config.FormatJSON, config.FormatYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return &Writer{Out: out, Format: format, ShowDiff: showDiff}, nil
}

// Result prints one observation. Text output is the diff (when enabled)
// followed by one shell command per line; synthesis errors are left to the
// caller. JSON is one object per line so monitor output stays streamable.
func (w *Writer) Result(res *sniff.Result, synthErr error) error {
	doc := Build(res, synthErr)
	if w.ShowDiff && res.Before != nil && res.After != nil {
		d, err := sniff.UnifiedDiff(res.Before, res.After)
		if err != nil {
			return fmt.Errorf("failed to render diff: %w", err)
		}
		doc.Diff = d
	}

	switch w.Format {
	case config.FormatJSON:
		return json.NewEncoder(w.Out).Encode(doc)
	case config.FormatYAML:
		return w.yaml(doc)
	default:
		if doc.Diff != "" {
			if _, err := io.WriteString(w.Out, doc.Diff); err != nil {
				return err
			}
		}
		for _, c := range doc.Commands {
			if _, err := fmt.Fprintln(w.Out, c.Shell); err != nil {
				return err
			}
		}
		return nil
	}
}

// Event prints one directory event.
func (w *Writer) Event(ev watch.Event) error {
	switch w.Format {
	case config.FormatJSON:
		return json.NewEncoder(w.Out).Encode(eventDoc(ev))
	case config.FormatYAML:
		return w.yaml(eventDoc(ev))
	default:
		_, err := fmt.Fprintf(w.Out, "%s: %s\n", ev.Kind, ev.Path)
		return err
	}
}

type event struct {
	Kind string `json:"event" yaml:"event"`
	Path string `json:"path" yaml:"path"`
}

func eventDoc(ev watch.Event) event {
	return event{Kind: string(ev.Kind), Path: ev.Path}
}

// yaml writes v as its own YAML document so a stream of results parses as
// a multi-document file.
func (w *Writer) yaml(v any) error {
	if _, err := io.WriteString(w.Out, "---\n"); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w.Out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
