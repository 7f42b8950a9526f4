package defaults

import (
	"fmt"
	"sort"

	"github.com/bolasblack/prefsniff/internal/diff"
	"github.com/bolasblack/prefsniff/internal/prefs"
)

// Synthesizer turns deltas into commands. The zero value invokes
// DefaultTool for the current user.
type Synthesizer struct {
	// Tool overrides the `defaults` executable.
	Tool string
	// HostScoped adds -currentHost to every command.
	HostScoped bool
}

// Synthesize renders delta for domain with the default tool.
func Synthesize(domain string, delta *diff.Delta, hostScoped bool) ([]Command, error) {
	return Synthesizer{HostScoped: hostScoped}.Synthesize(domain, delta)
}

// Synthesize returns commands in a fixed order: adds, deletes, per-key
// modifications, then full dict rewrites and full array rewrites, each group
// sorted by key. Full rewrites come last so no incremental command can
// override them.
func (s Synthesizer) Synthesize(domain string, delta *diff.Delta) ([]Command, error) {
	var cmds []Command

	for _, k := range sortedKeys(delta.Added) {
		c, err := writeFor(domain, k, delta.Added[k])
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}

	for _, k := range delta.Removed {
		cmds = append(cmds, NewDelete(domain, k))
	}

	var dictRewrites, arrayRewrites []string
	for _, k := range sortedKeys(delta.Modified) {
		change := delta.Modified[k]
		switch change.Shape {
		case diff.ShapeDict:
			if change.Nested.NeedsRewrite() {
				dictRewrites = append(dictRewrites, k)
				continue
			}
			for _, sub := range sortedKeys(change.Nested.Added) {
				c, err := NewDictAdd(domain, k, sub, change.Nested.Added[sub])
				if err != nil {
					return nil, err
				}
				cmds = append(cmds, c)
			}
			for _, sub := range sortedKeys(change.Nested.Modified) {
				c, err := NewDictAdd(domain, k, sub, change.Nested.Modified[sub])
				if err != nil {
					return nil, err
				}
				cmds = append(cmds, c)
			}

		case diff.ShapeArray:
			switch change.Affix.Kind {
			case diff.AffixIdentical:
			case diff.AffixExtension:
				c, err := NewArrayAdd(domain, k, change.Affix.Suffix)
				if err != nil {
					return nil, err
				}
				cmds = append(cmds, c)
			default:
				// defaults cannot drop array elements.
				arrayRewrites = append(arrayRewrites, k)
			}

		default:
			c, err := writeFor(domain, k, change.New)
			if err != nil {
				return nil, err
			}
			cmds = append(cmds, c)
		}
	}

	for _, k := range dictRewrites {
		c, err := writeFor(domain, k, delta.Modified[k].New)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	for _, k := range arrayRewrites {
		c, err := writeFor(domain, k, delta.Modified[k].New)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}

	for i := range cmds {
		if s.Tool != "" {
			cmds[i].Tool = s.Tool
		}
		cmds[i].HostScoped = s.HostScoped
	}
	return cmds, nil
}

// writeFor picks the write variant for the value's kind.
func writeFor(domain, key string, v prefs.Value) (Command, error) {
	tag, err := TypeFor(v.Kind())
	if err != nil {
		return Command{}, fmt.Errorf("key %q: %w", key, err)
	}
	return NewWrite(domain, key, tag, v)
}

// TypeFor maps a value kind to the write type used for it. Dicts and arrays
// are written untyped, as fragments.
func TypeFor(k prefs.Kind) (TypeTag, error) {
	switch k {
	case prefs.KindInteger:
		return TypeInt, nil
	case prefs.KindReal:
		return TypeFloat, nil
	case prefs.KindText:
		return TypeString, nil
	case prefs.KindBoolean:
		return TypeBool, nil
	case prefs.KindDict, prefs.KindArray:
		return TypeNone, nil
	case prefs.KindData, prefs.KindDate:
		return TypeNone, fmt.Errorf("%w: %s values cannot be written", prefs.ErrNotImplementedKind, k)
	default:
		return TypeNone, fmt.Errorf("%w: %s", prefs.ErrLookupFailure, k)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
