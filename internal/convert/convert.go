// Package convert reads a preference file into a snapshot tree.
//
// Two backends exist: plutil (the system conversion utility, the default on
// macOS) and native (in-process decoding, usable anywhere and in tests).
package convert

import (
	"context"
	"errors"
	"fmt"

	"howett.net/plist"

	"github.com/bolasblack/prefsniff/internal/prefs"
	"github.com/bolasblack/prefsniff/internal/util"
)

// ErrConversion is returned when a file is absent or not a valid plist.
var ErrConversion = errors.New("convert: not a readable preference file")

// Backend names accepted by New.
const (
	BackendPlutil = "plutil"
	BackendNative = "native"
)

// Snapshot is one observation of a domain.
type Snapshot struct {
	Path   string
	Domain string
	// Raw is the XML plist text, used for the human-readable diff.
	Raw  []byte
	Tree prefs.Tree
}

// Converter turns a plist path into a Snapshot.
type Converter interface {
	Convert(ctx context.Context, path string) (*Snapshot, error)
}

// New returns the converter for backend. tool overrides the plutil
// executable and is ignored by the native backend.
func New(backend string, env *util.Env, tool string) (Converter, error) {
	switch backend {
	case "", BackendPlutil:
		return NewPlutilConverter(env, tool), nil
	case BackendNative:
		return NewNativeConverter(env), nil
	default:
		return nil, fmt.Errorf("unknown converter %q (want %s or %s)", backend, BackendPlutil, BackendNative)
	}
}

// decode parses an XML (or any other) plist document whose root is a dict.
func decode(path string, doc []byte) (*Snapshot, error) {
	var root map[string]any
	if _, err := plist.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConversion, path, err)
	}
	tree, err := prefs.TreeFromNative(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConversion, path, err)
	}
	return &Snapshot{
		Path:   path,
		Domain: prefs.DomainFromPath(path),
		Raw:    doc,
		Tree:   tree,
	}, nil
}
