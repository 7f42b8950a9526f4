package config

import (
	"fmt"
	"path/filepath"
	"sort"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/bolasblack/prefsniff/internal/util"
)

// rawConfig is an intermediate type for decoding TOML. Booleans are pointers
// so an including file can switch an included true back to false.
type rawConfig struct {
	Includes  []string      `toml:"includes,omitempty"`
	Converter ConverterType `toml:"converter,omitempty"`
	Tools     Tools         `toml:"tools,omitempty"`
	Watch     rawWatch      `toml:"watch,omitempty"`
	Output    rawOutput     `toml:"output,omitempty"`
}

type rawWatch struct {
	PollIntervalMS int  `toml:"poll_interval_ms,omitempty"`
	SettleMS       *int `toml:"settle_ms,omitempty"`
}

type rawOutput struct {
	CurrentHost *bool  `toml:"current_host,omitempty"`
	ShowDiff    *bool  `toml:"show_diff,omitempty"`
	Format      string `toml:"format,omitempty"`
}

// LoadWithIncludes loads config with includes support.
// It processes includes recursively, merging configs in the order they are specified.
// No defaults are applied.
func LoadWithIncludes(env *util.Env, path string) (Config, error) {
	merged, err := loadWithIncludes(env, path, make(map[string]bool))
	if err != nil {
		return Config{}, err
	}
	return merged.toConfig(), nil
}

// loadWithIncludes is the internal recursive implementation.
func loadWithIncludes(env *util.Env, path string, visited map[string]bool) (rawConfig, error) {
	// Get absolute path for circular reference detection
	absPath, err := filepath.Abs(path)
	if err != nil {
		return rawConfig{}, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	if visited[absPath] {
		return rawConfig{}, fmt.Errorf("circular include detected: %s", path)
	}
	visited[absPath] = true
	defer delete(visited, absPath)

	data, err := afero.ReadFile(env.Fs, absPath)
	if err != nil {
		return rawConfig{}, err
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return rawConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	baseDir := filepath.Dir(absPath)

	// Process includes first (depth-first), then lay the current file on top.
	var merged rawConfig
	for _, includePattern := range raw.Includes {
		resolvedPattern := includePattern
		if !filepath.IsAbs(includePattern) {
			resolvedPattern = filepath.Join(baseDir, includePattern)
		}

		matchedFiles, err := expandGlob(env.Fs, resolvedPattern)
		if err != nil {
			return rawConfig{}, fmt.Errorf("failed to expand glob %s: %w", includePattern, err)
		}

		for _, includePath := range matchedFiles {
			included, err := loadWithIncludes(env, includePath, visited)
			if err != nil {
				return rawConfig{}, fmt.Errorf("failed to load include %s: %w", includePath, err)
			}
			merged = mergeConfigs(merged, included)
		}
	}

	return mergeConfigs(merged, raw), nil
}

func (r rawConfig) toConfig() Config {
	cfg := Config{
		Converter: r.Converter,
		Tools:     r.Tools,
		Watch:     Watch{PollIntervalMS: r.Watch.PollIntervalMS},
		Output:    Output{Format: r.Output.Format},
	}
	if r.Watch.SettleMS != nil {
		cfg.Watch.SettleMS = *r.Watch.SettleMS
	}
	if r.Output.CurrentHost != nil {
		cfg.Output.CurrentHost = *r.Output.CurrentHost
	}
	if r.Output.ShowDiff != nil {
		cfg.Output.ShowDiff = *r.Output.ShowDiff
	}
	return cfg
}

// isGlobPattern checks if the pattern contains glob special characters.
func isGlobPattern(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[':
			return true
		}
	}
	return false
}

// expandGlob expands a glob pattern and returns sorted matched files.
// For literal paths (no glob characters), returns error if file doesn't exist.
// For glob patterns, returns empty slice if no files match.
func expandGlob(fs afero.Fs, pattern string) ([]string, error) {
	if !isGlobPattern(pattern) {
		if _, err := fs.Stat(pattern); err != nil {
			return nil, err
		}
		return []string{pattern}, nil
	}

	matches, err := afero.Glob(fs, pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// mergeConfigs merges overlay config into base config.
// Scalars: overlay wins if set. Includes are consumed and not merged.
func mergeConfigs(base, overlay rawConfig) rawConfig {
	result := base
	result.Includes = nil

	if overlay.Converter != "" {
		result.Converter = overlay.Converter
	}
	if overlay.Tools.Defaults != "" {
		result.Tools.Defaults = overlay.Tools.Defaults
	}
	if overlay.Tools.Plutil != "" {
		result.Tools.Plutil = overlay.Tools.Plutil
	}
	if overlay.Watch.PollIntervalMS != 0 {
		result.Watch.PollIntervalMS = overlay.Watch.PollIntervalMS
	}
	if overlay.Watch.SettleMS != nil {
		result.Watch.SettleMS = overlay.Watch.SettleMS
	}
	if overlay.Output.CurrentHost != nil {
		result.Output.CurrentHost = overlay.Output.CurrentHost
	}
	if overlay.Output.ShowDiff != nil {
		result.Output.ShowDiff = overlay.Output.ShowDiff
	}
	if overlay.Output.Format != "" {
		result.Output.Format = overlay.Output.Format
	}

	return result
}
