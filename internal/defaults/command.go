// Package defaults models `defaults` invocations and synthesizes them from a
// preference delta.
package defaults

import (
	"fmt"
	"strings"

	"al.essio.dev/pkg/shellescape"

	"github.com/bolasblack/prefsniff/internal/fragment"
	"github.com/bolasblack/prefsniff/internal/prefs"
)

// DefaultTool is the preference-writing utility invoked by rendered commands.
const DefaultTool = "defaults"

// Kind is the variant of a Command.
type Kind int

const (
	// KindWrite writes a whole value, typed for scalars or as a fragment.
	KindWrite Kind = iota
	// KindDelete removes a top-level key.
	KindDelete
	// KindDictAdd adds or replaces one entry of a dict (-dict-add).
	KindDictAdd
	// KindArrayAdd appends elements to an array (-array-add).
	KindArrayAdd
)

func (k Kind) String() string {
	switch k {
	case KindWrite:
		return "write"
	case KindDelete:
		return "delete"
	case KindDictAdd:
		return "dict-add"
	case KindArrayAdd:
		return "array-add"
	default:
		return "unknown"
	}
}

// TypeTag is the `-<type>` flag of a scalar write. Empty means untyped.
type TypeTag string

const (
	TypeNone   TypeTag = ""
	TypeString TypeTag = "string"
	TypeInt    TypeTag = "int"
	TypeFloat  TypeTag = "float"
	TypeBool   TypeTag = "bool"
)

// Command is one `defaults` invocation.
type Command struct {
	Kind       Kind
	Tool       string
	Domain     string
	Key        string
	HostScoped bool
	// Type is only set for scalar writes.
	Type TypeTag
	// Value is the literal or fragment argument of a write.
	Value string
	// Subkey is the dict entry of a dict-add.
	Subkey string
	// Fragments holds the dict-add value or the appended array elements.
	Fragments []fragment.Fragment
}

// kindForType is the value kind each write type accepts.
var kindForType = map[TypeTag]prefs.Kind{
	TypeString: prefs.KindText,
	TypeInt:    prefs.KindInteger,
	TypeFloat:  prefs.KindReal,
	TypeBool:   prefs.KindBoolean,
}

// NewWrite builds a typed scalar write, or an untyped fragment write for
// dicts and arrays when tag is TypeNone.
func NewWrite(domain, key string, tag TypeTag, v prefs.Value) (Command, error) {
	cmd := Command{Kind: KindWrite, Tool: DefaultTool, Domain: domain, Key: key, Type: tag}

	if tag == TypeNone {
		if !v.Kind().IsStructured() {
			return Command{}, fmt.Errorf("%w: untyped write of %q needs a dict or array, got %s", prefs.ErrTypeMismatch, key, v.Kind())
		}
		frag, err := fragment.Serialize(v)
		if err != nil {
			return Command{}, fmt.Errorf("write %q: %w", key, err)
		}
		cmd.Value = frag.String()
		return cmd, nil
	}

	want, ok := kindForType[tag]
	if !ok {
		return Command{}, fmt.Errorf("%w: unknown write type -%s", prefs.ErrTypeMismatch, tag)
	}
	if v.Kind() != want {
		return Command{}, fmt.Errorf("%w: -%s write of %q requires %s, got %s", prefs.ErrTypeMismatch, tag, key, want, v.Kind())
	}
	lit, err := v.Literal()
	if err != nil {
		return Command{}, fmt.Errorf("write %q: %w", key, err)
	}
	cmd.Value = lit
	return cmd, nil
}

// NewDelete builds a delete of a top-level key.
func NewDelete(domain, key string) Command {
	return Command{Kind: KindDelete, Tool: DefaultTool, Domain: domain, Key: key}
}

// NewDictAdd builds a -dict-add setting subkey to v inside key.
func NewDictAdd(domain, key, subkey string, v prefs.Value) (Command, error) {
	frag, err := fragment.Serialize(v)
	if err != nil {
		return Command{}, fmt.Errorf("dict-add %q/%q: %w", key, subkey, err)
	}
	return Command{
		Kind:      KindDictAdd,
		Tool:      DefaultTool,
		Domain:    domain,
		Key:       key,
		Subkey:    subkey,
		Fragments: []fragment.Fragment{frag},
	}, nil
}

// NewArrayAdd builds a -array-add appending elems, in order, to key.
func NewArrayAdd(domain, key string, elems []prefs.Value) (Command, error) {
	frags := make([]fragment.Fragment, len(elems))
	for i, e := range elems {
		f, err := fragment.Serialize(e)
		if err != nil {
			return Command{}, fmt.Errorf("array-add %q[%d]: %w", key, i, err)
		}
		frags[i] = f
	}
	return Command{Kind: KindArrayAdd, Tool: DefaultTool, Domain: domain, Key: key, Fragments: frags}, nil
}

func (c Command) action() string {
	if c.Kind == KindDelete {
		return "delete"
	}
	return "write"
}

// flag returns the argument between key and values, if any.
func (c Command) flag() string {
	switch c.Kind {
	case KindDictAdd:
		return "-dict-add"
	case KindArrayAdd:
		return "-array-add"
	case KindWrite:
		if c.Type != TypeNone {
			return "-" + string(c.Type)
		}
	}
	return ""
}

func (c Command) values() []string {
	switch c.Kind {
	case KindWrite:
		return []string{c.Value}
	case KindDictAdd:
		vals := []string{c.Subkey}
		for _, f := range c.Fragments {
			vals = append(vals, f.String())
		}
		return vals
	case KindArrayAdd:
		vals := make([]string, len(c.Fragments))
		for i, f := range c.Fragments {
			vals[i] = f.String()
		}
		return vals
	}
	return nil
}

// Argv renders the invocation:
//
//	tool [-currentHost] action domain key [-type|-dict-add|-array-add] values...
//
// With quoted set every element is shell-quoted on its own, so joining with
// spaces keeps argument boundaries.
func (c Command) Argv(quoted bool) []string {
	tool := c.Tool
	if tool == "" {
		tool = DefaultTool
	}
	argv := []string{tool}
	if c.HostScoped {
		argv = append(argv, "-currentHost")
	}
	argv = append(argv, c.action(), c.Domain, c.Key)
	if f := c.flag(); f != "" {
		argv = append(argv, f)
	}
	argv = append(argv, c.values()...)

	if quoted {
		for i, a := range argv {
			argv[i] = shellescape.Quote(a)
		}
	}
	return argv
}

// String renders the command as a single shell line.
func (c Command) String() string {
	return strings.Join(c.Argv(true), " ")
}
