package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pqgraph-dev/pqgraph/internal/config"
	"github.com/pqgraph-dev/pqgraph/internal/fileutil"
	"github.com/pqgraph-dev/pqgraph/internal/graph"
	"github.com/pqgraph-dev/pqgraph/internal/nav"
	"github.com/pqgraph-dev/pqgraph/internal/output"
	"github.com/pqgraph-dev/pqgraph/internal/parser"
	"github.com/pqgraph-dev/pqgraph/internal/search"
	"github.com/pqgraph-dev/pqgraph/internal/state"
	"github.com/pqgraph-dev/pqgraph/internal/storage"
)

// extractor carries the settings shared by every catalog of one run.
type extractor struct {
	cfg         config.Config
	format      output.Format
	registry    *parser.Registry
	ignoreRules []string
	stderr      io.Writer
}

func RunExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read --json flag: %w", err)
	}

	ex, err := newExtractor(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	batch, err := ex.Run(commandContext(cmd), args, asJSON)
	if printErr := PrintBatchSummary(cmd.OutOrStdout(), batch, asJSON); printErr != nil {
		return printErr
	}
	return err
}

func newExtractor(cfg config.Config, stderr io.Writer) (*extractor, error) {
	format, err := ParseOutputFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	workDir, err := resolveWorkingDirectory()
	if err != nil {
		return nil, err
	}
	ignoreRules, err := LoadIgnoreRules(workDir, cfg)
	if err != nil {
		return nil, err
	}
	return &extractor{
		cfg:         cfg,
		format:      format,
		registry:    parser.DefaultRegistry(),
		ignoreRules: ignoreRules,
		stderr:      stderr,
	}, nil
}

// Run extracts every catalog the paths expand to. One failing catalog does not stop the
// others. The returned error reports how many failed.
func (ex *extractor) Run(ctx context.Context, paths []string, asJSON bool) (BatchSummary, error) {
	batch := BatchSummary{Mode: "extract", Catalogs: make([]RunSummary, 0, len(paths))}

	var inputs []parser.Input
	for _, path := range paths {
		planned, err := ex.registry.Plan(path, ex.ignoreRules)
		if err != nil {
			slog.Error("cannot plan input", "path", path, "error", err)
			batch.Total++
			batch.Catalogs = append(batch.Catalogs, RunSummary{Mode: "extract", Catalog: path, Source: path, Error: err.Error()})
			continue
		}
		inputs = append(inputs, planned...)
	}
	batch.Total += len(inputs)

	progress := newProgressReporter("extract", len(inputs), asJSON)
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		progress.Update(input.Name, i+1)
		summary, err := ex.extract(ctx, input)
		if err != nil {
			slog.Error("extract failed", "catalog", input.Name, "path", input.Path, "error", err)
			summary = RunSummary{Mode: "extract", Catalog: input.Name, Source: input.Path, Error: err.Error()}
		} else {
			batch.Processed++
		}
		batch.Catalogs = append(batch.Catalogs, summary)
	}
	progress.Done(len(inputs))

	slog.Info("extract finished", "processed", batch.Processed, "total", batch.Total)
	if batch.Processed != batch.Total {
		return batch, fmt.Errorf("%d of %d inputs failed", batch.Total-batch.Processed, batch.Total)
	}
	return batch, nil
}

func (ex *extractor) extract(ctx context.Context, input parser.Input) (RunSummary, error) {
	start := time.Now()
	slog.Info("processing input", "catalog", input.Name, "path", input.Path)

	result, err := ex.parse(input)
	if err != nil {
		return RunSummary{}, err
	}
	ReportParseIssues(ex.stderr, result.Issues)
	if !input.Dir && len(result.Files) == 0 {
		return RunSummary{}, fmt.Errorf("no definitions read from %s", input.Path)
	}

	nodes := result.Nodes()
	catalog := graph.NewCatalog(nodes)
	analysis := graph.Analyze(catalog, ex.detectOptions())
	slog.Debug("detected dependencies", "catalog", input.Name, "nodes", len(nodes), "edges", len(analysis.Edges))

	dir := output.Dir(ex.cfg.Out, input.Name)
	if err := output.Prepare(dir, ex.cfg.Overwrite); err != nil {
		return RunSummary{}, err
	}
	lock, err := output.Lock(ctx, dir)
	if err != nil {
		return RunSummary{}, err
	}
	defer lock.Unlock()

	prev, err := loadPreviousState(ex.stderr, dir)
	if err != nil {
		return RunSummary{}, err
	}

	sourceHashes := result.FileHashes()
	generatedAt := time.Now().UTC()
	if !prev.GeneratedAt.IsZero() && !prev.SourceChanged(sourceHashes) {
		generatedAt = prev.GeneratedAt
	}

	doc := &output.Document{
		Name:        input.Name,
		Source:      input.Path,
		Nodes:       nodes,
		Edges:       analysis.Edges,
		Steps:       analysis.Steps,
		ToolVersion: toolVersion,
		GeneratedAt: generatedAt,
	}
	writer := output.NewWriter(dir)
	if err := writer.WriteAll(doc, ex.format); err != nil {
		return RunSummary{}, err
	}
	if err := writeIndexes(writer, input.Name, catalog, analysis, nodes); err != nil {
		return RunSummary{}, err
	}
	if err := ex.writeStore(dir, nodes, analysis); err != nil {
		return RunSummary{}, err
	}

	changed := prev.ChangedNodes(nodes)
	deleted := prev.DeletedNodes(nodes)

	next := state.NewState()
	next.Source = input.Path
	next.SourceHashes = sourceHashes
	next.GeneratedAt = generatedAt
	fileutil.ApplyDetection(next, nodes, analysis.Edges)
	next.OutputHashes = writer.Hashes()
	if err := next.Save(dir); err != nil {
		return RunSummary{}, fmt.Errorf("failed to save state: %w", err)
	}

	names := make(map[string]string, len(nodes)+len(deleted))
	for _, id := range deleted {
		names[id] = nodeName(id, prev)
	}
	for _, node := range nodes {
		names[node.ID] = node.Name
	}

	slog.Info("output saved", "catalog", input.Name, "dir", dir)
	return RunSummary{
		Mode:       "extract",
		Catalog:    input.Name,
		Source:     input.Path,
		Format:     string(ex.format),
		OutputDir:  dir,
		Files:      len(result.Files),
		Nodes:      len(nodes),
		Edges:      len(analysis.Edges),
		Rewritten:  CountRewrittenOutputs(prev.OutputHashes, next.OutputHashes),
		Changed:    len(changed),
		Deleted:    len(deleted),
		Impacted:   len(prev.ImpactedNodes(changed, deleted)),
		Extracted:  true,
		DurationMS: time.Since(start).Milliseconds(),
		ChangedIDs: changed,
		DeletedIDs: deleted,
		names:      names,
	}, nil
}

// detectOptions resolves the configured worker count. The zero default becomes
// GOMAXPROCS so unconfigured runs scan in parallel.
func (ex *extractor) detectOptions() graph.Options {
	return graph.Options{Workers: graph.Options{Workers: ex.cfg.Workers}.WorkerCount()}
}

func (ex *extractor) parse(input parser.Input) (*parser.ParseResult, error) {
	if input.Dir {
		return ex.registry.ParseDirectory(input.Path, ex.ignoreRules)
	}
	return ex.registry.ParseInput(input.Path, ex.ignoreRules)
}

func writeIndexes(writer *output.Writer, name string, catalog *graph.Catalog, analysis *graph.Result, nodes []graph.Node) error {
	navData, err := nav.EncodeIndex(name, graph.BuildIndex(catalog, analysis.Edges), analysis.Steps)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", nav.IndexFile, err)
	}
	if err := writer.WriteFile(nav.IndexFile, navData); err != nil {
		return err
	}

	searchData, err := search.Encode(search.Build(nodes, analysis.Steps))
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", search.IndexFile, err)
	}
	return writer.WriteFile(search.IndexFile, searchData)
}

// writeStore exports graph.db when SQLite output is enabled and otherwise removes a
// stale one, so nothing queries a graph older than the reports.
func (ex *extractor) writeStore(dir string, nodes []graph.Node, analysis *graph.Result) error {
	path := filepath.Join(dir, storage.FileName)
	if !ex.cfg.SQLite {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale %s: %w", storage.FileName, err)
		}
		return nil
	}

	db, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.WriteGraph(nodes, analysis.Edges, analysis.Steps); err != nil {
		return fmt.Errorf("failed to export %s: %w", storage.FileName, err)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
