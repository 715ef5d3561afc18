package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pqgraph-dev/pqgraph/internal/fileutil"
	"github.com/pqgraph-dev/pqgraph/internal/output"
	"github.com/pqgraph-dev/pqgraph/internal/parser"
	"github.com/pqgraph-dev/pqgraph/internal/state"
)

func RunStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read --json flag: %w", err)
	}
	workDir, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	ignoreRules, err := LoadIgnoreRules(workDir, cfg)
	if err != nil {
		return err
	}

	registry := parser.DefaultRegistry()
	inputs, err := registry.Plan(args[0], ignoreRules)
	if err != nil {
		return err
	}

	batch := BatchSummary{Mode: "status", Total: len(inputs)}
	for _, input := range inputs {
		summary, err := inputStatus(cmd, registry, ignoreRules, cfg.Out, input)
		if err != nil {
			return fmt.Errorf("%s: %w", input.Name, err)
		}
		batch.Processed++
		batch.Catalogs = append(batch.Catalogs, summary)
	}
	return PrintBatchSummary(cmd.OutOrStdout(), batch, asJSON)
}

// inputStatus compares one catalog's stored state with its current source. The source is
// only parsed when its file hashes moved.
func inputStatus(cmd *cobra.Command, registry *parser.Registry, ignoreRules []string, outRoot string, input parser.Input) (RunSummary, error) {
	start := time.Now()
	dir := output.Dir(outRoot, input.Name)
	summary := RunSummary{Mode: "status", Catalog: input.Name, Source: input.Path, OutputDir: dir}
	if !state.Exists(dir) {
		return summary, nil
	}
	summary.Extracted = true

	st, err := loadPreviousState(cmd.ErrOrStderr(), dir)
	if err != nil {
		return summary, err
	}
	currentHashes, err := fileutil.ScanFileHashes(input.Path, registry, ignoreRules)
	if err != nil {
		return summary, fmt.Errorf("failed to scan files: %w", err)
	}
	summary.Files = len(currentHashes)
	summary.SourceDirty = st.SourceChanged(currentHashes)
	summary.Nodes = len(st.Nodes)

	if summary.SourceDirty {
		var result *parser.ParseResult
		if input.Dir {
			result, err = registry.ParseDirectory(input.Path, ignoreRules)
		} else {
			result, err = registry.ParseInput(input.Path, ignoreRules)
		}
		if err != nil {
			return summary, err
		}
		ReportParseIssues(cmd.ErrOrStderr(), result.Issues)

		nodes := result.Nodes()
		summary.Nodes = len(nodes)
		summary.ChangedIDs = st.ChangedNodes(nodes)
		summary.DeletedIDs = st.DeletedNodes(nodes)
		summary.ImpactedIDs, summary.Reasons = fileutil.ImpactedWithReasons(st, summary.ChangedIDs, summary.DeletedIDs)

		summary.names = make(map[string]string, len(nodes))
		for id := range st.Nodes {
			summary.names[id] = nodeName(id, st)
		}
		for _, node := range nodes {
			summary.names[node.ID] = node.Name
		}
	}

	summary.Changed = len(summary.ChangedIDs)
	summary.Deleted = len(summary.DeletedIDs)
	summary.Impacted = len(summary.ImpactedIDs)
	summary.DurationMS = time.Since(start).Milliseconds()
	return summary, nil
}
