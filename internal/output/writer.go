package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pqgraph-dev/pqgraph/internal/fileutil"
)

// Writer writes files into one output directory and tracks what it touched.
type Writer struct {
	dir     string
	hashes  map[string]string // file name -> content hash
	written []string          // files whose content changed
}

func NewWriter(dir string) *Writer {
	return &Writer{
		dir:    dir,
		hashes: make(map[string]string),
	}
}

func (w *Writer) Dir() string {
	return w.dir
}

// WriteFile writes name inside the directory unless it already holds the same bytes.
func (w *Writer) WriteFile(name string, data []byte) error {
	changed, err := fileutil.WriteIfChangedTracked(filepath.Join(w.dir, name), data)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	w.hashes[name] = fileutil.HashBytes(data)
	if changed {
		w.written = append(w.written, name)
	}
	return nil
}

// WriteAll renders the report files of format and removes those of the other format.
func (w *Writer) WriteAll(doc *Document, format Format) error {
	switch format {
	case FormatJSONL:
		nodes, edges, err := RenderJSONL(doc)
		if err != nil {
			return fmt.Errorf("failed to render jsonl: %w", err)
		}
		manifest, err := RenderManifest(doc)
		if err != nil {
			return fmt.Errorf("failed to render manifest: %w", err)
		}
		if err := w.WriteFile(NodesFile, nodes); err != nil {
			return err
		}
		if err := w.WriteFile(EdgesFile, edges); err != nil {
			return err
		}
		if err := w.WriteFile(ManifestFile, manifest); err != nil {
			return err
		}
	default:
		graphJSON, err := RenderGraphJSON(doc)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", GraphFile, err)
		}
		if err := w.WriteFile(QueriesFile, RenderQueries(doc)); err != nil {
			return err
		}
		if err := w.WriteFile(GraphFile, graphJSON); err != nil {
			return err
		}
	}
	return w.removeStale(format)
}

// Hashes returns content hashes of every file written or confirmed in this run.
func (w *Writer) Hashes() map[string]string {
	out := make(map[string]string, len(w.hashes))
	for name, hash := range w.hashes {
		out[name] = hash
	}
	return out
}

// Written returns the files whose content changed in this run, sorted.
func (w *Writer) Written() []string {
	out := append([]string(nil), w.written...)
	sort.Strings(out)
	return out
}

func (w *Writer) removeStale(format Format) error {
	other := FormatJSONL
	if format == FormatJSONL {
		other = FormatText
	}
	for _, name := range other.Files() {
		err := os.Remove(filepath.Join(w.dir, name))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale %s: %w", name, err)
		}
	}
	return nil
}
