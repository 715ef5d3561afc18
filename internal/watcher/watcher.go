// Package watcher re-runs extraction when model sources change.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pqgraph-dev/pqgraph/internal/ignore"
)

// DefaultDebounce is the quiet period before a batch of changes is reported.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches an input file or directory tree for source changes.
type Watcher struct {
	root      string // directory being watched
	file      string // set when a single input file is watched
	supports  func(path string) bool
	ignore    *ignore.Matcher
	exclude   []string
	fsWatcher *fsnotify.Watcher

	debounceDelay time.Duration
	onError       func(error)
}

// Option configures the watcher
type Option func(*Watcher)

// WithDebounce sets the debounce delay
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounceDelay = d
		}
	}
}

// WithIgnore applies ignore rules to directory inputs.
func WithIgnore(m *ignore.Matcher) Option {
	return func(w *Watcher) {
		w.ignore = m
	}
}

// WithExclude skips events below dir, typically the output root.
func WithExclude(dir string) Option {
	return func(w *Watcher) {
		if abs, err := filepath.Abs(dir); err == nil {
			w.exclude = append(w.exclude, abs)
		}
	}
}

// WithOnError sets the callback for watch errors
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New starts watching path. supports filters the files whose changes matter.
func New(path string, supports func(path string) bool, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:          abs,
		supports:      supports,
		fsWatcher:     fsWatcher,
		debounceDelay: DefaultDebounce,
		onError:       func(err error) { slog.Warn("watch error", "err", err) },
	}
	if !info.IsDir() {
		// Editors often save by rename, so watch the parent directory and filter.
		w.root = filepath.Dir(abs)
		w.file = abs
	}

	for _, opt := range opts {
		opt(w)
	}

	if err := w.addDirs(); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to add directories to watch: %w", err)
	}
	return w, nil
}

// addDirs recursively adds all directories to the watcher
func (w *Watcher) addDirs() error {
	if w.file != "" {
		return w.fsWatcher.Add(w.root)
	}
	return filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != w.root && w.skipDir(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// Run blocks until ctx is done, calling onChange with the sorted paths of each
// debounced batch. Calls never overlap.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, paths []string)) error {
	defer w.fsWatcher.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounceDelay)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounceDelay)
			fire = timer.C

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			if w.onError != nil {
				w.onError(err)
			}

		case <-fire:
			fire = nil
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			sort.Strings(paths)
			pending = make(map[string]struct{})
			onChange(ctx, paths)
		}
	}
}

// handleEvent reports whether an event touches a watched source. New directories are
// added to the watch as a side effect.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if w.excluded(event.Name) {
		return false
	}

	if w.file != "" {
		return event.Name == w.file
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skipDir(event.Name) {
				if err := w.fsWatcher.Add(event.Name); err != nil && w.onError != nil {
					w.onError(err)
				}
			}
			return false
		}
	}

	if w.supports != nil && !w.supports(event.Name) {
		return false
	}
	if w.ignore != nil {
		if rel, err := filepath.Rel(w.root, event.Name); err == nil && w.ignore.ShouldIgnore(rel, false) {
			return false
		}
	}
	return true
}

func (w *Watcher) skipDir(path string) bool {
	if w.excluded(path) {
		return true
	}
	if w.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	return w.ignore.ShouldIgnore(rel, true)
}

func (w *Watcher) excluded(path string) bool {
	for _, dir := range w.exclude {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
