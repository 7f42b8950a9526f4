// Package config handles parsing and writing of prefsniff configuration files (.prefsniff.toml).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/bolasblack/prefsniff/internal/util"
)

// Filename is the standard configuration file name.
const Filename = ".prefsniff.toml"

// ConverterType selects how preference files are turned into structured data.
type ConverterType string

const (
	// ConverterPlutil shells out to plutil. Only available on macOS.
	ConverterPlutil ConverterType = "plutil"

	// ConverterNative decodes plist files in-process.
	ConverterNative ConverterType = "native"
)

// Output formats understood by the report package.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Tools names the external executables prefsniff emits or runs.
type Tools struct {
	Defaults string `toml:"defaults,omitempty" json:"defaults,omitempty" jsonschema:"description=Executable written at the head of every synthesized command"`
	Plutil   string `toml:"plutil,omitempty" json:"plutil,omitempty" jsonschema:"description=plutil executable used by the plutil converter"`
}

// Watch tunes the file stabilization watcher.
type Watch struct {
	PollIntervalMS int `toml:"poll_interval_ms,omitempty" json:"poll_interval_ms,omitempty" jsonschema:"minimum=1,description=How often cancellation and the settle window are checked (milliseconds)"`
	SettleMS       int `toml:"settle_ms,omitempty" json:"settle_ms,omitempty" jsonschema:"minimum=0,description=Quiet period required after the last change before reading the file again (milliseconds)"`
}

// Output controls how results are printed.
type Output struct {
	CurrentHost bool   `toml:"current_host,omitempty" json:"current_host,omitempty" jsonschema:"description=Emit -currentHost on every command"`
	ShowDiff    bool   `toml:"show_diff,omitempty" json:"show_diff,omitempty" jsonschema:"description=Print a unified diff of the XML before the commands"`
	Format      string `toml:"format,omitempty" json:"format,omitempty" jsonschema:"enum=text,enum=json,enum=yaml,description=Output format"`
}

// Config represents the prefsniff configuration (after processing).
type Config struct {
	Converter ConverterType `toml:"converter,omitempty" json:"converter,omitempty" jsonschema:"enum=plutil,enum=native,description=Backend converting preference files to structured data"`
	Tools     Tools         `toml:"tools,omitempty" json:"tools,omitempty" jsonschema:"description=External executables"`
	Watch     Watch         `toml:"watch,omitempty" json:"watch,omitempty" jsonschema:"description=File watcher tuning"`
	Output    Output        `toml:"output,omitempty" json:"output,omitempty" jsonschema:"description=Result rendering"`
}

// SchemaConfig is the exported type for JSON schema generation.
// It represents what users can write in .prefsniff.toml files.
type SchemaConfig struct {
	Includes  []string      `toml:"includes,omitempty" json:"includes,omitempty" jsonschema:"description=Other config files to include and merge (supports glob patterns)"`
	Converter ConverterType `toml:"converter,omitempty" json:"converter,omitempty" jsonschema:"enum=plutil,enum=native,description=Backend converting preference files to structured data"`
	Tools     Tools         `toml:"tools,omitempty" json:"tools,omitempty" jsonschema:"description=External executables"`
	Watch     Watch         `toml:"watch,omitempty" json:"watch,omitempty" jsonschema:"description=File watcher tuning"`
	Output    Output        `toml:"output,omitempty" json:"output,omitempty" jsonschema:"description=Result rendering"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Converter: ConverterPlutil,
		Tools: Tools{
			Defaults: "defaults",
			Plutil:   "plutil",
		},
		Watch: Watch{
			PollIntervalMS: 100,
		},
		Output: Output{
			Format: FormatText,
		},
	}
}

// PollInterval returns the watcher tick as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Watch.PollIntervalMS) * time.Millisecond
}

// Settle returns the quiet window as a duration.
func (c *Config) Settle() time.Duration {
	return time.Duration(c.Watch.SettleMS) * time.Millisecond
}

// Validate checks enum fields and numeric ranges.
func (c *Config) Validate() error {
	switch c.Converter {
	case ConverterPlutil, ConverterNative:
	default:
		return fmt.Errorf("%w: converter %q must be plutil or native", ErrInvalid, c.Converter)
	}
	switch c.Output.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("%w: output.format %q must be text, json or yaml", ErrInvalid, c.Output.Format)
	}
	if c.Watch.PollIntervalMS <= 0 {
		return fmt.Errorf("%w: watch.poll_interval_ms must be positive", ErrInvalid)
	}
	if c.Watch.SettleMS < 0 {
		return fmt.Errorf("%w: watch.settle_ms must not be negative", ErrInvalid)
	}
	return nil
}

// applyDefaults fills every zero field from DefaultConfig. Booleans are
// left alone since false is their default.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Converter == "" {
		c.Converter = def.Converter
	}
	if c.Tools.Defaults == "" {
		c.Tools.Defaults = def.Tools.Defaults
	}
	if c.Tools.Plutil == "" {
		c.Tools.Plutil = def.Tools.Plutil
	}
	if c.Watch.PollIntervalMS == 0 {
		c.Watch.PollIntervalMS = def.Watch.PollIntervalMS
	}
	if c.Output.Format == "" {
		c.Output.Format = def.Output.Format
	}
}

// LoadConfig reads and parses a configuration file from the given path.
// Supports includes directive for composable configuration.
// Applies defaults for missing fields and validates the result.
func LoadConfig(env *util.Env, path string) (Config, error) {
	cfg, err := LoadWithIncludes(env, path)
	if err != nil {
		return Config{}, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional loads path if it exists and returns DefaultConfig otherwise.
func LoadOptional(env *util.Env, path string) (Config, error) {
	exists, err := afero.Exists(env.Fs, path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to check %s: %w", path, err)
	}
	if !exists {
		return DefaultConfig(), nil
	}
	return LoadConfig(env, path)
}

// SchemaComment is the TOML comment that references the JSON Schema for editor autocomplete.
const SchemaComment = "#:schema https://raw.githubusercontent.com/bolasblack/prefsniff/refs/heads/master/prefsniff-config.schema.json\n\n"

// Encode renders cfg as TOML with the schema comment header.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(SchemaComment)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveConfig writes the configuration to the given path with schema comment header.
func SaveConfig(env *util.Env, path string, cfg Config) error {
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	return afero.WriteFile(env.Fs, path, data, 0644)
}
