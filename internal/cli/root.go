package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pqgraph-dev/pqgraph/internal/config"
	"github.com/pqgraph-dev/pqgraph/internal/nav"
	"github.com/pqgraph-dev/pqgraph/internal/output"
)

// toolVersion is stamped into reports and the MCP handshake.
var toolVersion = "dev"

func NewRootCommand(version string) *cobra.Command {
	if version != "" {
		toolVersion = version
	}

	rootCmd := &cobra.Command{
		Use:   "pqgraph",
		Short: "Map dependencies between Power Query definitions",
		Long: `pqgraph reads Power Query (M) definitions from .pbix/.pbit models, .pq/.pqm/.m
files or JSON catalogs, detects which queries, functions and parameters each
definition uses, and writes per-catalog reports plus navigation indexes.

Output is written to 1_OUTPUT/<catalog>/ unless configured otherwise in .pqgraph.toml.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
	rootCmd.PersistentFlags().String("log-level", "", "Log level: DEBUG|INFO|WARN|ERROR (default from config, else INFO)")

	// Core Commands
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .pqgraph.toml and .pqgraphignore",
		RunE:  RunInit,
	}

	extractCmd := &cobra.Command{
		Use:   "extract <path>...",
		Short: "Extract definitions and write dependency reports",
		Args:  cobra.MinimumNArgs(1),
		RunE:  RunExtract,
	}
	addExtractFlags(extractCmd)
	extractCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	watchCmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Re-extract whenever model sources change",
		Args:  cobra.ExactArgs(1),
		RunE:  RunWatch,
	}
	addExtractFlags(watchCmd)
	watchCmd.Flags().Int("debounce", config.DefaultDebounceMS, "Quiet period in milliseconds before re-extracting")

	// Inspect Commands
	statusCmd := &cobra.Command{
		Use:   "status <path>",
		Short: "Show which definitions changed since the last extract",
		Args:  cobra.ExactArgs(1),
		RunE:  RunStatus,
	}
	statusCmd.Flags().String("out", output.DefaultDir, "Output root directory")
	statusCmd.Flags().Bool("json", false, "Print machine-readable status output")

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate config, output directories and state freshness",
		RunE:  RunDoctor,
	}
	doctorCmd.Flags().String("out", output.DefaultDir, "Output root directory")
	doctorCmd.Flags().Bool("json", false, "Print machine-readable doctor output")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a catalog to MCP clients over stdio",
		Args:  cobra.NoArgs,
		RunE:  RunServe,
	}
	addDirFlags(serveCmd)

	// Navigate Commands
	nodeCmd := &cobra.Command{
		Use:   "node <name|id>",
		Short: "Lookup definitions by name or stable ID",
		Args:  cobra.ExactArgs(1),
		RunE:  nav.RunNode,
	}
	addDirFlags(nodeCmd)
	nodeCmd.Flags().Bool("json", false, "Print machine-readable matches")
	nodeCmd.Flags().Bool("fuzzy", false, "Enable BM25 fuzzy fallback when exact lookup misses")
	nodeCmd.Flags().Int("limit", 10, "Maximum number of matches to return")

	depsCmd := &cobra.Command{
		Use:   "deps <name|id>",
		Short: "Show what a definition depends on",
		Args:  cobra.ExactArgs(1),
		RunE:  nav.RunDeps,
	}
	addDirFlags(depsCmd)
	depsCmd.Flags().Bool("json", false, "Print machine-readable dependency results")

	dependentsCmd := &cobra.Command{
		Use:   "dependents <name|id>",
		Short: "Show which definitions depend on a definition",
		Args:  cobra.ExactArgs(1),
		RunE:  nav.RunDependents,
	}
	addDirFlags(dependentsCmd)
	dependentsCmd.Flags().Bool("json", false, "Print machine-readable dependent results")

	traceCmd := &cobra.Command{
		Use:   "trace <name|id>",
		Short: "Trace dependencies from a definition up to depth N",
		Args:  cobra.ExactArgs(1),
		RunE:  nav.RunTrace,
	}
	addDirFlags(traceCmd)
	traceCmd.Flags().Int("depth", 2, "Traversal depth (>=1)")
	traceCmd.Flags().Bool("reverse", false, "Trace dependents instead (impact of a change)")
	traceCmd.Flags().Bool("json", false, "Print machine-readable trace results")

	pathCmd := &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Find the shortest dependency path between two definitions",
		Args:  cobra.ExactArgs(2),
		RunE:  nav.RunPath,
	}
	addDirFlags(pathCmd)
	pathCmd.Flags().Bool("json", false, "Print machine-readable path results")

	stepsCmd := &cobra.Command{
		Use:   "steps <name|id>",
		Short: "List the let-block steps of a definition",
		Args:  cobra.ExactArgs(1),
		RunE:  nav.RunSteps,
	}
	addDirFlags(stepsCmd)
	stepsCmd.Flags().Bool("json", false, "Print machine-readable steps")

	findCmd := &cobra.Command{
		Use:   "find <query>...",
		Short: "Search definitions by name, steps and M code",
		Args:  cobra.MinimumNArgs(1),
		RunE:  nav.RunFind,
	}
	addDirFlags(findCmd)
	findCmd.Flags().Bool("json", false, "Print machine-readable search results")
	findCmd.Flags().Int("limit", 10, "Maximum number of results")

	topCmd := &cobra.Command{
		Use:   "top",
		Short: "Rank the most depended-upon definitions",
		Args:  cobra.NoArgs,
		RunE:  nav.RunTop,
	}
	addDirFlags(topCmd)
	topCmd.Flags().Bool("json", false, "Print machine-readable ranking")
	topCmd.Flags().Int("limit", 10, "Number of definitions to show")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pqgraph %s\n", toolVersion)
		},
	}

	rootCmd.AddCommand(
		initCmd,
		extractCmd,
		watchCmd,
		statusCmd,
		doctorCmd,
		serveCmd,
		nodeCmd,
		depsCmd,
		dependentsCmd,
		traceCmd,
		pathCmd,
		stepsCmd,
		findCmd,
		topCmd,
		versionCmd,
	)

	return rootCmd
}

func addExtractFlags(cmd *cobra.Command) {
	cmd.Flags().String("out", output.DefaultDir, "Output root directory")
	cmd.Flags().String("format", string(output.FormatText), "Output format: text|jsonl")
	cmd.Flags().Bool("overwrite", false, "Replace existing catalog output directories")
	cmd.Flags().Bool("sqlite", false, "Also export graph.db (SQLite)")
	cmd.Flags().Int("workers", 0, "Parallel detection workers (0 = number of CPUs)")
}

func addDirFlags(cmd *cobra.Command) {
	cmd.Flags().String("dir", "", "Catalog output directory (default: current dir or the single catalog under --out)")
	cmd.Flags().String("out", output.DefaultDir, "Output root directory")
}
