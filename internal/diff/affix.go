package diff

import "github.com/bolasblack/prefsniff/internal/prefs"

// AffixKind is the relationship between an old and a new array.
type AffixKind int

const (
	AffixIdentical AffixKind = iota
	// AffixExtension: new is old followed by a non-empty suffix.
	AffixExtension
	// AffixShrink: new is a strict prefix of old.
	AffixShrink
	AffixUnrelated
)

func (k AffixKind) String() string {
	switch k {
	case AffixIdentical:
		return "identical"
	case AffixExtension:
		return "extension"
	case AffixShrink:
		return "shrink"
	case AffixUnrelated:
		return "unrelated"
	default:
		return "unknown"
	}
}

// ListAffix is the result of Affix. Suffix holds the appended elements for
// an extension and the dropped elements for a shrink.
type ListAffix struct {
	Kind   AffixKind
	Suffix []prefs.Value
}

// Affix compares two arrays by common prefix.
func Affix(old, new []prefs.Value) ListAffix {
	switch {
	case prefs.ElemsEqual(old, new):
		return ListAffix{Kind: AffixIdentical}
	case len(new) > len(old) && prefs.ElemsEqual(old, new[:len(old)]):
		return ListAffix{Kind: AffixExtension, Suffix: new[len(old):]}
	case len(old) > len(new) && prefs.ElemsEqual(new, old[:len(new)]):
		return ListAffix{Kind: AffixShrink, Suffix: old[len(new):]}
	default:
		return ListAffix{Kind: AffixUnrelated}
	}
}
