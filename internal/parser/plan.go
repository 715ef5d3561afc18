package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pqgraph-dev/pqgraph/internal/ignore"
)

// containerReader marks readers whose files each hold a whole model. Such files are
// extracted on their own instead of being merged with their directory.
type containerReader interface {
	Container() bool
}

func (PBIXReader) Container() bool { return true }

// Input is one catalog to extract.
type Input struct {
	Name string // catalog name: output directory and report title
	Path string
	Dir  bool // Path is a directory whose loose files merge into one catalog
}

// IsContainer reports whether filename is read by a container reader.
func (r *Registry) IsContainer(filename string) bool {
	reader, ok := r.ReaderForFile(filename)
	if !ok {
		return false
	}
	c, ok := reader.(containerReader)
	return ok && c.Container()
}

// Plan lists the catalogs an input path expands to. A file is one catalog named after
// its stem. A directory yields one catalog per container file plus, when loose
// definition files exist, one merged catalog named after the directory.
func (r *Registry) Plan(path string, ignorePaths []string) ([]Input, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}
	if !info.IsDir() {
		if !r.Supports(path) {
			return nil, fmt.Errorf("unsupported input %s (supported: %s)", path, strings.Join(r.SupportedExtensions(), ", "))
		}
		return []Input{{Name: stem(path), Path: path}}, nil
	}

	ignoreMatcher := ignore.NewMatcher(ignorePaths)
	var containers []string
	loose := false
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		relPath, _ := filepath.Rel(path, p)
		if ignoreMatcher.ShouldIgnore(filepath.ToSlash(relPath), info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || !r.Supports(p) {
			return nil
		}
		if r.IsContainer(p) {
			containers = append(containers, p)
		} else {
			loose = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", path, err)
	}
	sort.Strings(containers)

	inputs := make([]Input, 0, len(containers)+1)
	used := make(map[string]bool)
	if loose {
		name := filepath.Base(path)
		if abs, err := filepath.Abs(path); err == nil {
			name = filepath.Base(abs)
		}
		inputs = append(inputs, Input{Name: name, Path: path, Dir: true})
		used[name] = true
	}
	for _, file := range containers {
		name := stem(file)
		if used[name] {
			rel, _ := filepath.Rel(path, file)
			name = strings.ReplaceAll(filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel))), "/", "_")
		}
		used[name] = true
		inputs = append(inputs, Input{Name: name, Path: file})
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no supported inputs found in %s (supported: %s)", path, strings.Join(r.SupportedExtensions(), ", "))
	}
	return inputs, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
