package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bolasblack/prefsniff/internal/config"
	"github.com/bolasblack/prefsniff/internal/convert"
	"github.com/bolasblack/prefsniff/internal/defaults"
	"github.com/bolasblack/prefsniff/internal/report"
	"github.com/bolasblack/prefsniff/internal/sniff"
	"github.com/bolasblack/prefsniff/internal/util"
)

var diffDomain string

var diffCmd = &cobra.Command{
	Use:   "diff <before> <after>",
	Short: "Print defaults commands turning one plist into another",
	Long: `Compare two saved copies of a preference file and print the defaults
commands that turn the first into the second. The domain is derived from the
second file name unless --domain is given.

Files are decoded in-process unless --converter plutil is given.`,
	Example: `  cp ~/Library/Preferences/com.apple.dock.plist /tmp/before.plist
  # change a setting
  prefsniff diff --domain com.apple.dock /tmp/before.plist ~/Library/Preferences/com.apple.dock.plist`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	f := diffCmd.Flags()
	f.StringVar(&diffDomain, "domain", "", "Domain to write commands for (default: derived from <after>)")
	f.Bool("current-host", false, "Emit -currentHost on every command")
	f.Bool("diff", false, "Print a unified diff of the XML before the commands")
	f.String("converter", string(config.ConverterNative), "Converter backend (plutil|native)")
	f.String("format", config.FormatText, "Output format (text|json|yaml)")
}

func runDiff(cmd *cobra.Command, args []string) error {
	cwd, err := getCwd()
	if err != nil {
		return err
	}

	env := util.NewReadonlyOsEnv()
	cfg, err := loadConfig(env, cwd, configPath)
	if err != nil {
		return err
	}
	// Offline comparison does not need plutil; only an explicit flag selects it.
	cfg.Converter = config.ConverterNative
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	w, err := report.New(cmd.OutOrStdout(), cfg.Output.Format, cfg.Output.ShowDiff)
	if err != nil {
		return err
	}
	return diffFiles(cmd.Context(), env, cfg, args[0], args[1], diffDomain, w, cmd.ErrOrStderr())
}

// diffFiles converts both files and prints the commands between them. A
// synthesis error is reported after the partial result is written.
func diffFiles(ctx context.Context, env *util.Env, cfg config.Config, beforePath, afterPath, domain string, w *report.Writer, status io.Writer) error {
	conv, err := newConverter(env, cfg)
	if err != nil {
		return err
	}

	before, err := conv.Convert(ctx, beforePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", beforePath, err)
	}
	after, err := conv.Convert(ctx, afterPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", afterPath, err)
	}
	if domain != "" {
		after = withDomain(after, domain)
	}

	s := &sniff.Sniffer{
		Synth:  defaults.Synthesizer{Tool: cfg.Tools.Defaults, HostScoped: cfg.Output.CurrentHost},
		Logger: logger,
	}
	res, synthErr := s.Compare(before, after)
	if err := w.Result(res, synthErr); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if synthErr != nil {
		return synthErr
	}
	if len(res.Commands) == 0 {
		progressDone(status, "No changes\n")
	}
	return nil
}

func withDomain(s *convert.Snapshot, domain string) *convert.Snapshot {
	c := *s
	c.Domain = domain
	return &c
}
