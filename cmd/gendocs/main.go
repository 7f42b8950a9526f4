// Command gendocs generates documentation for the prefsniff CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/bolasblack/prefsniff/internal/cli"
	"github.com/bolasblack/prefsniff/internal/config"
)

// commandWeights orders the generated pages the way a user meets the
// commands: configure, watch live, then diff saved copies.
var commandWeights = map[string]int{
	"prefsniff":       1,
	"prefsniff init":  2,
	"prefsniff watch": 3,
	"prefsniff diff":  4,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: gendocs <markdown|man|completions|config> [outdir]")
		os.Exit(1)
	}

	outDir := ""
	if len(os.Args) > 2 {
		outDir = os.Args[2]
	}

	if err := run(cli.GetRootCmd(), os.Args[1], outDir, buildDate()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildDate honours SOURCE_DATE_EPOCH so generated pages are reproducible.
func buildDate() time.Time {
	if s := os.Getenv("SOURCE_DATE_EPOCH"); s != "" {
		if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Unix(sec, 0).UTC()
		}
	}
	return time.Now().UTC()
}

func run(root *cobra.Command, format, outDir string, date time.Time) error {
	disableAutoGenTag(root)

	switch format {
	case "markdown":
		return generateMarkdown(root, orDefault(outDir, "docs/commands"), date)
	case "man":
		return generateMan(root, orDefault(outDir, "out/man"), date)
	case "completions":
		return generateCompletions(root, orDefault(outDir, "out/completions"))
	case "config":
		return generateConfigReference(orDefault(outDir, "docs"))
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// disableAutoGenTag drops the dated cobra footer from every page.
func disableAutoGenTag(cmd *cobra.Command) {
	cmd.DisableAutoGenTag = true
	for _, c := range cmd.Commands() {
		disableAutoGenTag(c)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func generateMarkdown(root *cobra.Command, dir string, date time.Time) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Front matter for the static site; weight keeps the sidebar in
	// workflow order instead of alphabetical.
	filePrepender := func(filename string) string {
		base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		title := strings.ReplaceAll(base, "_", " ")
		weight := commandWeights[title]
		if weight == 0 {
			weight = 100
		}
		return fmt.Sprintf("---\ntitle: %q\ndate: %s\nweight: %d\n---\n\n", title, date.Format("2006-01-02"), weight)
	}

	linkHandler := func(name string) string {
		return "./" + strings.TrimSuffix(name, filepath.Ext(name)) + ".md"
	}

	if err := doc.GenMarkdownTreeCustom(root, dir, filePrepender, linkHandler); err != nil {
		return fmt.Errorf("failed to generate markdown: %w", err)
	}
	fmt.Printf("Generated markdown documentation in %s/\n", dir)
	return nil
}

func generateCompletions(root *cobra.Command, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	shells := []struct {
		ext string
		gen func(*os.File) error
	}{
		{"bash", func(f *os.File) error { return root.GenBashCompletionV2(f, true) }},
		{"zsh", func(f *os.File) error { return root.GenZshCompletion(f) }},
		{"fish", func(f *os.File) error { return root.GenFishCompletion(f, true) }},
	}
	for _, sh := range shells {
		if err := writeFile(filepath.Join(dir, "prefsniff."+sh.ext), sh.gen); err != nil {
			return err
		}
	}

	fmt.Printf("Generated shell completions in %s/\n", dir)
	return nil
}

func writeFile(path string, gen func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := gen(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to generate %s: %w", path, err)
	}
	return f.Close()
}

func generateMan(root *cobra.Command, dir string, date time.Time) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	header := &doc.GenManHeader{
		Title:   "PREFSNIFF",
		Section: "1",
		Source:  "prefsniff " + cli.Version,
		Manual:  "prefsniff Manual",
		Date:    &date,
	}

	if err := doc.GenManTree(root, header, dir); err != nil {
		return fmt.Errorf("failed to generate man pages: %w", err)
	}
	fmt.Printf("Generated man pages in %s/\n", dir)
	return nil
}

// generateConfigReference writes the default .prefsniff.toml, the file
// prefsniff behaves as if it had read when none exists.
func generateConfigReference(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := config.Encode(config.DefaultConfig())
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("---\ntitle: \"configuration\"\nweight: 10\n---\n\n")
	fmt.Fprintf(&b, "Defaults applied when `%s` is absent or leaves a field unset:\n\n", config.Filename)
	b.WriteString("```toml\n")
	b.Write(data)
	b.WriteString("```\n")

	path := filepath.Join(dir, "configuration.md")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("Generated configuration reference in %s\n", path)
	return nil
}
