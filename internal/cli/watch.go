package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pqgraph-dev/pqgraph/internal/ignore"
	"github.com/pqgraph-dev/pqgraph/internal/watcher"
)

// RunWatch extracts path once and again after every settled burst of source changes.
// Overwrite is implied. It returns when interrupted.
func RunWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	cfg.Overwrite = true

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ex, err := newExtractor(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	path := args[0]

	extractOnce := func(ctx context.Context) {
		batch, err := ex.Run(ctx, []string{path}, false)
		if printErr := PrintBatchSummary(out, batch, false); printErr != nil {
			slog.Error("cannot print summary", "error", printErr)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("extract finished with errors", "error", err)
		}
	}
	extractOnce(ctx)

	w, err := watcher.New(path, ex.registry.Supports,
		watcher.WithDebounce(cfg.Debounce()),
		watcher.WithIgnore(ignore.NewMatcher(ex.ignoreRules)),
		watcher.WithExclude(cfg.Out),
		watcher.WithOnError(func(err error) {
			slog.Warn("watch error", "error", err)
		}),
	)
	if err != nil {
		return err
	}

	abs, _ := filepath.Abs(path)
	slog.Info("watching for changes", "path", abs, "debounce", cfg.Debounce())
	err = w.Run(ctx, func(ctx context.Context, paths []string) {
		slog.Info("change detected", "files", len(paths), "first", paths[0])
		extractOnce(ctx)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
