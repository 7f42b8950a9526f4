package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bolasblack/prefsniff/internal/config"
	"github.com/bolasblack/prefsniff/internal/util"
)

var (
	initConverter string
	initForce     bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a prefsniff configuration in the current directory",
	Long: `Create a .prefsniff.toml configuration file in the current directory.

When run in a terminal without --converter, asks which converter backend to use.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initConverter, "converter", "", "Converter backend (plutil|native)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := getCwd()
	if err != nil {
		return err
	}

	backend := config.ConverterType(initConverter)
	if backend == "" {
		backend = config.ConverterPlutil
		if term.IsTerminal(int(os.Stdin.Fd())) {
			if backend, err = selectConverter(); err != nil {
				return err
			}
		}
	}

	env := util.NewEnv(afero.NewOsFs())
	return writeInitConfig(env, filepath.Join(cwd, ConfigFilename), backend, initForce, cmd.OutOrStdout())
}

// selectConverter asks for the converter backend interactively.
func selectConverter() (config.ConverterType, error) {
	var selected string
	err := huh.NewSelect[string]().
		Title("Select a converter backend").
		Options(
			huh.NewOption("plutil - convert with the macOS plutil tool", string(config.ConverterPlutil)),
			huh.NewOption("native - decode plist files in-process", string(config.ConverterNative)),
		).
		Value(&selected).
		Run()
	if err != nil {
		return "", fmt.Errorf("converter selection cancelled: %w", err)
	}
	return config.ConverterType(selected), nil
}

// writeInitConfig generates the template for backend and writes it to path.
func writeInitConfig(env *util.Env, path string, backend config.ConverterType, force bool, out io.Writer) error {
	switch backend {
	case config.ConverterPlutil, config.ConverterNative:
	default:
		return fmt.Errorf("unknown converter %q: must be plutil or native", backend)
	}

	if _, err := env.Fs.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	content, err := config.GenerateConfig(backend)
	if err != nil {
		return fmt.Errorf("failed to generate configuration: %w", err)
	}

	if err := afero.WriteFile(env.Fs, path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	progressDone(out, "Created %s\n", path)
	fmt.Fprintln(out, "Edit this file to customize how prefsniff reads and prints preferences.")
	return nil
}
