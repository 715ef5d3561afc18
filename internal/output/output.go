// Package output renders extraction results to an output directory.
package output

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const (
	DefaultDir   = "1_OUTPUT"
	QueriesFile  = "queries.md"
	GraphFile    = "dependency_graph.json"
	NodesFile    = "nodes.jsonl"
	EdgesFile    = "edges.jsonl"
	ManifestFile = "manifest.json"
	LockFile     = ".lock"

	ToolName   = "pqgraph"
	ParserMode = "regex"
)

// lockTimeout bounds how long Lock waits for another writer.
const lockTimeout = 5 * time.Second

var (
	// ErrOutputExists is returned when a catalog's output directory exists and overwrite is off.
	ErrOutputExists = errors.New("output directory exists")
	// ErrLocked is returned when another process holds the output directory lock.
	ErrLocked = errors.New("output directory is locked")
)

// Format selects the report files written per catalog.
type Format string

const (
	FormatText  Format = "text"
	FormatJSONL Format = "jsonl"
)

// ParseFormat validates a format name. Empty means text.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSONL:
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: text, jsonl)", value)
	}
}

// Files returns the report files a format writes, in write order.
func (f Format) Files() []string {
	if f == FormatJSONL {
		return []string{NodesFile, EdgesFile, ManifestFile}
	}
	return []string{QueriesFile, GraphFile}
}

// Dir returns the output directory of a catalog.
func Dir(outRoot, catalog string) string {
	return filepath.Join(outRoot, catalog)
}

// Prepare creates dir. An existing directory fails with ErrOutputExists unless overwrite
// is set.
func Prepare(dir string, overwrite bool) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("output path %s exists and is not a directory", dir)
		}
		if !overwrite {
			return fmt.Errorf("%s: %w (use --overwrite)", dir, ErrOutputExists)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to inspect output directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Lock takes an exclusive lock on dir for the duration of a write. The caller must
// unlock the returned lock.
func Lock(ctx context.Context, dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, LockFile))
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("failed to lock %s: %w", dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", dir, ErrLocked)
	}
	return lock, nil
}
