package prefs

import (
	"path/filepath"
	"strings"
)

// DomainFromPath derives the preference domain from a plist path:
// "~/Library/Preferences/com.apple.dock.plist" -> "com.apple.dock".
func DomainFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
