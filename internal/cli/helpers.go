package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pqgraph-dev/pqgraph/internal/config"
	"github.com/pqgraph-dev/pqgraph/internal/ignore"
	"github.com/pqgraph-dev/pqgraph/internal/parser"
	"github.com/pqgraph-dev/pqgraph/internal/state"
	"github.com/pqgraph-dev/pqgraph/internal/style"
)

func resolveWorkingDirectory() (string, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return workDir, nil
}

// LoadIgnoreRules returns the .pqgraphignore rules of root followed by the config's
// ignore patterns.
func LoadIgnoreRules(root string, cfg config.Config) ([]string, error) {
	rules, err := ignore.LoadFile(root)
	if err != nil {
		return nil, err
	}
	return append(rules, cfg.Ignore...), nil
}

func IsCorruptStateError(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

// loadPreviousState reads the state of a catalog directory. A corrupt file is reported
// and replaced by an empty state, so the next extract rebuilds everything.
func loadPreviousState(w io.Writer, dir string) (*state.State, error) {
	st, err := state.Load(dir)
	if err == nil {
		return st, nil
	}
	if IsCorruptStateError(err) {
		style.Fprintwarn(w, "warning: corrupt state file in %s (%v); treating all definitions as changed", dir, err)
		return state.NewState(), nil
	}
	return nil, fmt.Errorf("failed to load state: %w", err)
}

func CountRewrittenOutputs(before, after map[string]string) int {
	rewritten := 0
	seen := make(map[string]bool, len(before)+len(after))
	for file := range before {
		seen[file] = true
	}
	for file := range after {
		seen[file] = true
	}
	for file := range seen {
		if before[file] != after[file] {
			rewritten++
		}
	}
	return rewritten
}

func ReportParseIssues(w io.Writer, issues []parser.ParseIssue) {
	for _, issue := range issues {
		line := fmt.Sprintf("[%s] %s: %s", issue.Severity, issue.File, issue.Message)
		if issue.Format != "" {
			line = fmt.Sprintf("[%s] %s (%s): %s", issue.Severity, issue.File, issue.Format, issue.Message)
		}
		if issue.Severity == "error" {
			style.Fprintfail(w, "%s", line)
			continue
		}
		style.Fprintwarn(w, "%s", line)
	}
}

// nodeNames maps definition IDs to display names, looking them up in each state in turn.
func nodeNames(ids []string, states ...*state.State) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, nodeName(id, states...))
	}
	return names
}

func nodeName(id string, states ...*state.State) string {
	for _, st := range states {
		if st == nil {
			continue
		}
		if ns, ok := st.Nodes[id]; ok && ns.Name != "" {
			return ns.Name
		}
	}
	return id
}
