package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pqgraph-dev/pqgraph/internal/config"
	"github.com/pqgraph-dev/pqgraph/internal/output"
)

func OptionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return "", nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

func ParseOutputFormat(value string) (output.Format, error) {
	return output.ParseFormat(value)
}

// flagChanged reports whether name was set explicitly on the command line.
func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	flag := cmd.Flags().Lookup(name)
	return flag != nil && flag.Changed
}

// loadSettings reads .pqgraph.toml from the working directory and lays explicitly set
// flags over it.
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	workDir, err := resolveWorkingDirectory()
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(workDir)
	if err != nil {
		return cfg, err
	}

	if flagChanged(cmd, "out") {
		if cfg.Out, err = OptionalStringFlag(cmd, "out"); err != nil {
			return cfg, err
		}
	}
	if flagChanged(cmd, "format") {
		if cfg.Format, err = OptionalStringFlag(cmd, "format"); err != nil {
			return cfg, err
		}
	}
	if flagChanged(cmd, "overwrite") {
		if cfg.Overwrite, err = cmd.Flags().GetBool("overwrite"); err != nil {
			return cfg, fmt.Errorf("failed to read --overwrite flag: %w", err)
		}
	}
	if flagChanged(cmd, "sqlite") {
		if cfg.SQLite, err = cmd.Flags().GetBool("sqlite"); err != nil {
			return cfg, fmt.Errorf("failed to read --sqlite flag: %w", err)
		}
	}
	if flagChanged(cmd, "workers") {
		if cfg.Workers, err = cmd.Flags().GetInt("workers"); err != nil {
			return cfg, fmt.Errorf("failed to read --workers flag: %w", err)
		}
	}
	if flagChanged(cmd, "debounce") {
		if cfg.Watch.DebounceMS, err = cmd.Flags().GetInt("debounce"); err != nil {
			return cfg, fmt.Errorf("failed to read --debounce flag: %w", err)
		}
	}
	if flagChanged(cmd, "log-level") {
		if cfg.LogLevel, err = cmd.Flags().GetString("log-level"); err != nil {
			return cfg, fmt.Errorf("failed to read --log-level flag: %w", err)
		}
	}
	return cfg, cfg.Validate()
}
