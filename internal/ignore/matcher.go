package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileName is the per-project ignore file read by LoadFile.
const FileName = ".pqgraphignore"

// DefaultRules are prepended to every matcher and can be overridden by user negation rules.
var DefaultRules = []string{
	"**/.git/",
	"**/.pqgraph/",
	"**/1_OUTPUT/",
	"**/node_modules/",
	"**/__pycache__/",
}

// Matcher applies gitignore rules with "last rule wins" behavior.
type Matcher struct {
	rules    []string
	compiled *gitignore.GitIgnore
	defaults *gitignore.GitIgnore
}

// NewMatcher builds a matcher from user-provided ignore lines.
func NewMatcher(userRules []string) *Matcher {
	all := make([]string, 0, len(DefaultRules)+len(userRules))
	all = append(all, DefaultRules...)
	for _, line := range userRules {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		all = append(all, line)
	}

	return &Matcher{
		rules:    all,
		compiled: gitignore.CompileIgnoreLines(all...),
		defaults: gitignore.CompileIgnoreLines(DefaultRules...),
	}
}

// Rules returns the effective rule list, defaults first.
func (m *Matcher) Rules() []string {
	out := make([]string, len(m.rules))
	copy(out, m.rules)
	return out
}

// ShouldIgnore returns true when relPath should be excluded.
// Directories are pruned by the default rules only. User rules are evaluated per file,
// so a negation inside an excluded directory still applies.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = normalizePath(relPath)
	if relPath == "" || relPath == "." {
		return false
	}
	if isDir {
		dir := strings.TrimSuffix(relPath, "/") + "/"
		return m.defaults.MatchesPath(dir) && m.compiled.MatchesPath(dir)
	}
	return m.compiled.MatchesPath(relPath)
}

// LoadFile reads ignore rules from root/.pqgraphignore. A missing file yields no rules.
func LoadFile(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", FileName, err)
	}
	defer f.Close()

	var rules []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	return rules, nil
}

func normalizePath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	path = strings.TrimPrefix(path, "/")
	return path
}
