// generator.go provides config templates for prefsniff init.
//
// init only writes the fields a user is likely to change; everything else
// falls back to DefaultConfig at load time.

package config

import (
	"fmt"
	"strings"
)

// TemplateConfig holds a Config and the comments to place above its keys.
type TemplateConfig struct {
	Config   Config
	Comments map[string]string // top-level key -> comment
}

// TemplateFor returns the init template for the given converter backend.
func TemplateFor(converter ConverterType) TemplateConfig {
	switch converter {
	case ConverterNative:
		return TemplateConfig{
			Config: Config{
				Converter: ConverterNative,
				Output:    Output{Format: FormatText},
			},
			Comments: map[string]string{
				"converter": "decode plist files in-process; works without plutil",
			},
		}
	default:
		return TemplateConfig{
			Config: Config{
				Converter: ConverterPlutil,
				Tools:     Tools{Plutil: "plutil"},
				Output:    Output{Format: FormatText},
			},
			Comments: map[string]string{
				"converter": "convert with plutil -convert xml1 (macOS only)",
			},
		}
	}
}

// GenerateConfig returns the TOML content for the given converter backend.
func GenerateConfig(converter ConverterType) (string, error) {
	tc := TemplateFor(converter)

	data, err := Encode(tc.Config)
	if err != nil {
		return "", fmt.Errorf("encode template: %w", err)
	}

	content := string(data)
	for key, comment := range tc.Comments {
		content = insertComment(content, key, comment)
	}
	return content, nil
}

// insertComment inserts a comment line before the first top-level
// assignment of key.
func insertComment(content, key, comment string) string {
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines)+1)
	done := false

	for _, line := range lines {
		if !done && strings.HasPrefix(line, key+" =") {
			result = append(result, "# "+comment)
			done = true
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}
