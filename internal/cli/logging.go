package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pqgraph-dev/pqgraph/internal/config"
)

// setupLogging installs the default slog logger on stderr. The level comes from
// --log-level, else from the config file, else INFO.
func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to read --log-level flag: %w", err)
	}
	if strings.TrimSpace(level) == "" {
		level = config.DefaultLogLevel
		if workDir, err := os.Getwd(); err == nil {
			// A broken config is reported by the command itself.
			if cfg, err := config.Load(workDir); err == nil {
				level = cfg.LogLevel
			}
		}
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(level)))); err != nil {
		return fmt.Errorf("invalid log level %q (supported: DEBUG, INFO, WARN, ERROR)", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}
