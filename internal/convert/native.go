package convert

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"howett.net/plist"

	"github.com/bolasblack/prefsniff/internal/util"
)

// NativeConverter decodes binary, XML and OpenStep plists in-process.
type NativeConverter struct {
	fs afero.Fs
}

func NewNativeConverter(env *util.Env) *NativeConverter {
	return &NativeConverter{fs: env.Fs}
}

func (c *NativeConverter) Convert(ctx context.Context, path string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}

	var root map[string]any
	format, err := plist.Unmarshal(data, &root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConversion, path, err)
	}
	if format == plist.XMLFormat {
		return decode(path, data)
	}

	// Re-encode as XML so diffs of binary files stay readable.
	doc, err := plist.MarshalIndent(root, plist.XMLFormat, "\t")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConversion, path, err)
	}
	return decode(path, doc)
}
