package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bolasblack/prefsniff/internal/config"
	"github.com/bolasblack/prefsniff/internal/defaults"
	"github.com/bolasblack/prefsniff/internal/prefs"
	"github.com/bolasblack/prefsniff/internal/report"
	"github.com/bolasblack/prefsniff/internal/sniff"
	"github.com/bolasblack/prefsniff/internal/util"
	"github.com/bolasblack/prefsniff/internal/watch"
)

var watchOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch <plist|directory>",
	Short: "Print defaults commands for every change to a preference file",
	Long: `Watch a preference file and print the defaults commands that reproduce
each change made to it. Runs until interrupted unless --once is given.

If the argument is a directory, prefsniff reports every file event inside it
instead, which helps to find the domain a settings panel writes to.`,
	Example: `  prefsniff watch ~/Library/Preferences/com.apple.dock.plist
  prefsniff watch --current-host ~/Library/Preferences/ByHost/com.apple.screensaver.*.plist
  prefsniff watch ~/Library/Preferences`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.BoolVar(&watchOnce, "once", false, "Stop after the first change")
	f.Bool("current-host", false, "Emit -currentHost on every command")
	f.Bool("diff", false, "Print a unified diff of the XML before the commands")
	f.String("converter", string(config.ConverterPlutil), "Converter backend (plutil|native)")
	f.String("format", config.FormatText, "Output format (text|json|yaml)")
	f.Duration("settle", 0, "Quiet period to wait after the last write before reading the file")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cwd, err := getCwd()
	if err != nil {
		return err
	}

	env := util.NewReadonlyOsEnv()
	cfg, err := loadConfig(env, cwd, configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	w, err := report.New(cmd.OutOrStdout(), cfg.Output.Format, cfg.Output.ShowDiff)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := args[0]
	info, err := env.Fs.Stat(path)
	if err == nil && info.IsDir() {
		return watchDir(ctx, path, w, cmd.ErrOrStderr())
	}

	conv, err := newConverter(env, cfg)
	if err != nil {
		return err
	}
	fw := watch.NewFSWatcher(logger)
	fw.PollInterval = cfg.PollInterval()
	fw.Settle = cfg.Settle()

	s := &sniff.Sniffer{
		Converter:  conv,
		Stabilizer: fw,
		Synth:      defaults.Synthesizer{Tool: cfg.Tools.Defaults, HostScoped: cfg.Output.CurrentHost},
		Logger:     logger,
	}
	return watchFile(ctx, s, w, path, watchOnce, cmd.ErrOrStderr())
}

// watchFile runs the pipeline on one preference file. Synthesis errors are
// reported and skipped; read and watch errors end the command.
func watchFile(ctx context.Context, s *sniff.Sniffer, w *report.Writer, path string, once bool, status io.Writer) error {
	progressStep(status, "Watching prefs file: %s (domain %s)\n", path, prefs.DomainFromPath(path))

	handle := func(res *sniff.Result, err error) error {
		if err != nil {
			progressWarn(status, "%s: %v\n", res.Domain, err)
		}
		if werr := w.Result(res, err); werr != nil {
			return fmt.Errorf("failed to write result: %w", werr)
		}
		if once {
			return sniff.ErrStop
		}
		return nil
	}

	if err := s.Monitor(ctx, path, handle); err != nil {
		return err
	}
	if ctx.Err() != nil {
		progressDone(status, "Exiting.\n")
	}
	return nil
}

// watchDir reports every event inside dir until ctx is cancelled.
func watchDir(ctx context.Context, dir string, w *report.Writer, status io.Writer) error {
	progressStep(status, "Watching events for directory: %s\n", dir)
	err := watch.Dir(ctx, dir, w.Event)
	if errors.Is(err, context.Canceled) {
		progressDone(status, "Exiting.\n")
		return nil
	}
	return err
}
