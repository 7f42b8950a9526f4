package sniff

import (
	"github.com/pmezard/go-difflib/difflib"

	"github.com/bolasblack/prefsniff/internal/convert"
)

// UnifiedDiff renders a line diff of the two XML documents for humans. It
// plays no part in command synthesis.
func UnifiedDiff(before, after *convert.Snapshot) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before.Raw)),
		B:        difflib.SplitLines(string(after.Raw)),
		FromFile: before.Path + " (before)",
		ToFile:   after.Path + " (after)",
		Context:  3,
	})
}
