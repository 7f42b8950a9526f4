// Package diff computes the structural delta between two preference trees.
//
// Comparison is one level deep for dictionaries and prefix-based for arrays,
// matching what `defaults write -dict-add` and `-array-add` can express.
// Anything deeper is treated as an atomic new value.
package diff

import (
	"github.com/bolasblack/prefsniff/internal/prefs"
)

// ChangeShape classifies how a modified key can be rewritten.
type ChangeShape int

const (
	// ShapeScalar replaces the whole value, also used when the kind changed.
	ShapeScalar ChangeShape = iota
	// ShapeDict is a dict-to-dict change carrying a nested DictDelta.
	ShapeDict
	// ShapeArray is an array-to-array change carrying a ListAffix.
	ShapeArray
)

func (s ChangeShape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeDict:
		return "dict"
	case ShapeArray:
		return "array"
	default:
		return "unknown"
	}
}

// Change describes one modified top-level key.
type Change struct {
	Old   prefs.Value
	New   prefs.Value
	Shape ChangeShape
	// Nested is set for ShapeDict.
	Nested *DictDelta
	// Affix is set for ShapeArray.
	Affix ListAffix
}

// DictDelta is the one-level comparison of two dictionaries.
type DictDelta struct {
	Added    map[string]prefs.Value
	Removed  []string
	Modified map[string]prefs.Value
}

// NeedsRewrite reports whether the dictionary must be written in full.
// defaults has no way to delete a single dict entry.
func (d *DictDelta) NeedsRewrite() bool {
	return len(d.Removed) > 0
}

// Delta partitions the keys of two trees. Added, Removed, Modified and
// Unchanged are pairwise disjoint and together cover every key of both trees.
type Delta struct {
	Added     map[string]prefs.Value
	Removed   []string
	Modified  map[string]Change
	Unchanged []string
}

// Empty reports whether the trees were identical.
func (d *Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// ComputeDelta compares two snapshots of the same domain.
func ComputeDelta(before, after prefs.Tree) *Delta {
	d := &Delta{
		Added:    make(map[string]prefs.Value),
		Modified: make(map[string]Change),
	}

	for _, k := range before.Keys() {
		if _, ok := after[k]; !ok {
			d.Removed = append(d.Removed, k)
		}
	}

	for _, k := range after.Keys() {
		nv := after[k]
		ov, ok := before[k]
		switch {
		case !ok:
			d.Added[k] = nv
		case prefs.Equal(ov, nv):
			d.Unchanged = append(d.Unchanged, k)
		default:
			d.Modified[k] = classify(ov, nv)
		}
	}

	return d
}

func classify(old, new prefs.Value) Change {
	c := Change{Old: old, New: new, Shape: ShapeScalar}
	if old.Kind() != new.Kind() {
		return c
	}
	switch new.Kind() {
	case prefs.KindDict:
		c.Shape = ShapeDict
		c.Nested = compareDicts(old, new)
	case prefs.KindArray:
		c.Shape = ShapeArray
		c.Affix = Affix(old.Elems(), new.Elems())
	}
	return c
}

// compareDicts diffs exactly one level; nested values are compared whole.
func compareDicts(old, new prefs.Value) *DictDelta {
	nd := &DictDelta{
		Added:    make(map[string]prefs.Value),
		Modified: make(map[string]prefs.Value),
	}
	for _, k := range old.Keys() {
		if _, ok := new.Lookup(k); !ok {
			nd.Removed = append(nd.Removed, k)
		}
	}
	for k, nv := range new.Entries() {
		ov, ok := old.Lookup(k)
		if !ok {
			nd.Added[k] = nv
		} else if !prefs.Equal(ov, nv) {
			nd.Modified[k] = nv
		}
	}
	return nd
}
