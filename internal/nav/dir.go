package nav

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ResolveDir picks the catalog output directory to navigate. An explicit dir wins. Without
// one, the working directory is used when it holds an index, else the single catalog
// under outRoot.
func ResolveDir(explicit, outRoot string) (string, error) {
	if explicit != "" {
		if !hasIndex(explicit) {
			return "", fmt.Errorf("%w in %s (run pqgraph extract)", ErrIndexMissing, explicit)
		}
		return explicit, nil
	}

	workDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	if hasIndex(workDir) {
		return workDir, nil
	}

	catalogs, err := ListCatalogDirs(outRoot)
	if err != nil {
		return "", err
	}
	switch len(catalogs) {
	case 0:
		return "", fmt.Errorf("%w under %s (run pqgraph extract)", ErrIndexMissing, outRoot)
	case 1:
		return catalogs[0], nil
	default:
		names := make([]string, 0, len(catalogs))
		for _, dir := range catalogs {
			names = append(names, filepath.Base(dir))
		}
		return "", fmt.Errorf("multiple catalogs under %s; use --dir with one of: %s", outRoot, strings.Join(names, ", "))
	}
}

// ListCatalogDirs returns the subdirectories of outRoot that hold a navigation index.
func ListCatalogDirs(outRoot string) ([]string, error) {
	entries, err := os.ReadDir(outRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", outRoot, err)
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(outRoot, entry.Name())
		if hasIndex(dir) {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func hasIndex(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, IndexFile))
	return err == nil && !info.IsDir()
}
