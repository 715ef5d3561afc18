// Package config loads project settings from .pqgraph.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the per-project config file read from the working directory.
const FileName = ".pqgraph.toml"

const (
	DefaultOut        = "1_OUTPUT"
	DefaultFormat     = "text"
	DefaultLogLevel   = "INFO"
	DefaultDebounceMS = 500
)

// Config holds the settings every command starts from. Flags set on the command line
// override these values.
type Config struct {
	// Out is the root directory that receives one subdirectory per catalog.
	Out string `toml:"out"`

	// Format is "text" (queries.md + dependency_graph.json) or "jsonl".
	Format string `toml:"format"`

	Overwrite bool   `toml:"overwrite"`
	LogLevel  string `toml:"log_level"`

	// Workers bounds parallel detection. Zero means GOMAXPROCS.
	Workers int `toml:"workers"`

	// SQLite also writes graph.db next to the reports.
	SQLite bool `toml:"sqlite"`

	// Ignore holds extra gitignore-style patterns, applied after .pqgraphignore.
	Ignore []string `toml:"ignore"`

	Watch WatchConfig `toml:"watch"`
}

type WatchConfig struct {
	DebounceMS int `toml:"debounce_ms"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		Out:      DefaultOut,
		Format:   DefaultFormat,
		LogLevel: DefaultLogLevel,
		Watch:    WatchConfig{DebounceMS: DefaultDebounceMS},
	}
}

// Load reads dir/.pqgraph.toml over the defaults. A missing file yields the defaults.
func Load(dir string) (Config, error) {
	cfg := Default()
	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Default(), fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return Default(), fmt.Errorf("unknown keys in %s: %s", FileName, strings.Join(keys, ", "))
	}

	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return cfg, nil
}

// Validate reports the first setting that no command could accept.
func (c Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "text", "jsonl":
	default:
		return fmt.Errorf("format %q (supported: text, jsonl)", c.Format)
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("log_level %q (supported: DEBUG, INFO, WARN, ERROR)", c.LogLevel)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}
	return nil
}

// Debounce returns the watch debounce interval.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

func (c *Config) fillDefaults() {
	if strings.TrimSpace(c.Out) == "" {
		c.Out = DefaultOut
	}
	if strings.TrimSpace(c.Format) == "" {
		c.Format = DefaultFormat
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Template is the commented config written by pqgraph init.
const Template = `# pqgraph settings. Command-line flags override these values.

# Root directory for reports; each catalog gets its own subdirectory.
out = "1_OUTPUT"

# "text" writes queries.md and dependency_graph.json, "jsonl" writes nodes/edges JSONL.
format = "text"

# Replace existing catalog output directories.
overwrite = false

# DEBUG, INFO, WARN or ERROR.
log_level = "INFO"

# Parallel detection workers (0 = number of CPUs).
workers = 0

# Also export graph.db (SQLite) next to the reports.
sqlite = false

# Extra ignore patterns for directory inputs, on top of .pqgraphignore.
ignore = []

[watch]
debounce_ms = 500
`
