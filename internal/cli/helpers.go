package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bolasblack/prefsniff/internal/config"
	"github.com/bolasblack/prefsniff/internal/convert"
	"github.com/bolasblack/prefsniff/internal/util"
)

// ConfigFilename is the standard configuration file name.
const ConfigFilename = config.Filename

// Common error messages for CLI commands.
const (
	ErrMsgConfigNotFound = "configuration not found: %s"
)

// newLogger builds the diagnostic logger. Logs go to stderr so stdout stays
// clean for commands that are piped into a shell.
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// loadConfig loads the configuration. An explicit path must exist; the
// default path in cwd is optional.
func loadConfig(env *util.Env, cwd, explicit string) (config.Config, error) {
	if explicit != "" {
		cfg, err := config.LoadConfig(env, explicit)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return config.Config{}, fmt.Errorf(ErrMsgConfigNotFound, explicit)
			}
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadOptional(env, filepath.Join(cwd, ConfigFilename))
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// applyFlags lets explicitly set command flags override the config file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("converter") {
		v, _ := flags.GetString("converter")
		cfg.Converter = config.ConverterType(v)
	}
	if flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("current-host") {
		cfg.Output.CurrentHost, _ = flags.GetBool("current-host")
	}
	if flags.Changed("diff") {
		cfg.Output.ShowDiff, _ = flags.GetBool("diff")
	}
	if flags.Changed("settle") {
		settle, _ := flags.GetDuration("settle")
		cfg.Watch.SettleMS = int(settle.Milliseconds())
	}
}

// newConverter selects the converter backend named by the config.
func newConverter(env *util.Env, cfg config.Config) (convert.Converter, error) {
	conv, err := convert.New(string(cfg.Converter), env, cfg.Tools.Plutil)
	if err != nil {
		return nil, fmt.Errorf("failed to select converter: %w", err)
	}
	return conv, nil
}

// getCwd returns the current working directory or an error.
func getCwd() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cwd, nil
}

// progressStep writes a progress message with → prefix (step in progress).
// Delegates to util.ProgressStep for shared implementation.
var progressStep = util.ProgressStep

// progressDone writes a progress message with ✓ prefix (step completed).
// Delegates to util.ProgressDone for shared implementation.
var progressDone = util.ProgressDone

// progressWarn writes a progress message with ! prefix.
var progressWarn = util.ProgressWarn
