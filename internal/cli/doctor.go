package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pqgraph-dev/pqgraph/internal/config"
	"github.com/pqgraph-dev/pqgraph/internal/fileutil"
	"github.com/pqgraph-dev/pqgraph/internal/nav"
	"github.com/pqgraph-dev/pqgraph/internal/parser"
	"github.com/pqgraph-dev/pqgraph/internal/search"
	"github.com/pqgraph-dev/pqgraph/internal/state"
	"github.com/pqgraph-dev/pqgraph/internal/style"
)

func RunDoctor(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	asJSON, err := nav.OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	summary := DoctorSummary{Mode: "doctor", RootPath: rootPath}

	cfg, err := loadSettings(cmd)
	if err != nil {
		summary.Problems = append(summary.Problems, fmt.Sprintf("config: %v", err))
		summary.Suggestions = append(summary.Suggestions, fmt.Sprintf("fix %s or run pqgraph init in a clean directory", config.FileName))
		cfg = config.Default()
	}
	if _, err := os.Stat(filepath.Join(rootPath, config.FileName)); err == nil {
		summary.ConfigFile = config.FileName
	}
	summary.OutputRoot = cfg.Out

	ignoreRules, err := LoadIgnoreRules(rootPath, cfg)
	if err != nil {
		summary.Problems = append(summary.Problems, err.Error())
	}

	dirs, err := catalogStateDirs(cfg.Out)
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		summary.Problems = append(summary.Problems, fmt.Sprintf("no extracted catalogs under %s", cfg.Out))
		summary.Suggestions = append(summary.Suggestions, "run pqgraph extract <path>")
	}

	registry := parser.DefaultRegistry()
	for _, dir := range dirs {
		catalog := checkCatalog(registry, ignoreRules, dir)
		if catalog.Problem != "" {
			summary.Problems = append(summary.Problems, fmt.Sprintf("%s: %s", catalog.Name, catalog.Problem))
		}
		if len(catalog.Missing) > 0 {
			summary.Problems = append(summary.Problems, fmt.Sprintf("%s: missing %s", catalog.Name, strings.Join(catalog.Missing, ", ")))
		}
		if !catalog.Fresh && catalog.Source != "" {
			summary.Suggestions = append(summary.Suggestions, fmt.Sprintf("run pqgraph extract --overwrite %s", catalog.Source))
		}
		summary.Catalogs = append(summary.Catalogs, catalog)
	}

	summary.Suggestions = fileutil.DedupeStrings(summary.Suggestions)
	sort.Strings(summary.Suggestions)
	summary.Healthy = len(summary.Problems) == 0
	for _, catalog := range summary.Catalogs {
		summary.Healthy = summary.Healthy && catalog.Fresh
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return fileutil.FprintJSON(out, summary)
	}

	if summary.Healthy {
		style.Fprintok(out, "doctor: ok")
	} else {
		style.Fprintwarn(out, "doctor: issues")
	}
	configFile := summary.ConfigFile
	if configFile == "" {
		configFile = "(defaults)"
	}
	fmt.Fprintf(out, "config: %s out=%s format=%s\n", configFile, cfg.Out, cfg.Format)
	for _, catalog := range summary.Catalogs {
		fmt.Fprintf(out, "catalog %s: fresh=%t source=%s\n", catalog.Name, catalog.Fresh, catalog.Source)
	}
	for _, problem := range summary.Problems {
		fmt.Fprintf(out, "problem: %s\n", problem)
	}
	for _, suggestion := range summary.Suggestions {
		fmt.Fprintf(out, "next: %s\n", suggestion)
	}
	return nil
}

// catalogStateDirs lists the subdirectories of outRoot that hold extraction state.
func catalogStateDirs(outRoot string) ([]string, error) {
	entries, err := os.ReadDir(outRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", outRoot, err)
	}
	var dirs []string
	for _, entry := range entries {
		dir := filepath.Join(outRoot, entry.Name())
		if entry.IsDir() && state.Exists(dir) {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// checkCatalog verifies that a catalog's recorded outputs exist and that its source has
// not moved since the last extract.
func checkCatalog(registry *parser.Registry, ignoreRules []string, dir string) DoctorCatalog {
	catalog := DoctorCatalog{Name: filepath.Base(dir), Dir: dir}

	st, err := state.Load(dir)
	if err != nil {
		catalog.Problem = fmt.Sprintf("unreadable state: %v", err)
		return catalog
	}
	catalog.Source = st.Source

	required := mapKeys(st.OutputHashes)
	sort.Strings(required)
	required = append(required, nav.IndexFile, search.IndexFile)
	for _, name := range fileutil.DedupeStrings(required) {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			catalog.Missing = append(catalog.Missing, name)
		}
	}

	if st.Source == "" {
		catalog.Problem = "state does not record its source"
		return catalog
	}
	hashes, err := fileutil.ScanFileHashes(st.Source, registry, ignoreRules)
	if err != nil {
		catalog.Problem = fmt.Sprintf("source unavailable: %v", err)
		return catalog
	}
	catalog.Fresh = !st.SourceChanged(hashes) && len(catalog.Missing) == 0
	return catalog
}

func mapKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	return keys
}
