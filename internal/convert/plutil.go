package convert

import (
	"context"
	"fmt"

	"github.com/bolasblack/prefsniff/internal/util"
)

// DefaultPlutil is the conversion utility shipped with macOS.
const DefaultPlutil = "plutil"

// PlutilConverter shells out to `plutil -convert xml1 -o - <path>`.
type PlutilConverter struct {
	env  *util.Env
	tool string
}

// NewPlutilConverter creates a converter running tool, or plutil if empty.
func NewPlutilConverter(env *util.Env, tool string) *PlutilConverter {
	if tool == "" {
		tool = DefaultPlutil
	}
	return &PlutilConverter{env: env, tool: tool}
}

func (c *PlutilConverter) Convert(ctx context.Context, path string) (*Snapshot, error) {
	if _, err := c.env.Fs.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}

	out, err := c.env.Cmd.Output(ctx, c.tool, "-convert", "xml1", "-o", "-", path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return decode(path, out)
}
