package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/pqgraph-dev/pqgraph/internal/fileutil"
	"github.com/pqgraph-dev/pqgraph/internal/style"
)

// RunSummary describes one catalog handled by extract or status.
type RunSummary struct {
	Mode        string              `json:"mode"`
	Catalog     string              `json:"catalog"`
	Source      string              `json:"source"`
	Format      string              `json:"format,omitempty"`
	OutputDir   string              `json:"output_dir,omitempty"`
	Files       int                 `json:"files"`
	Nodes       int                 `json:"nodes"`
	Edges       int                 `json:"edges"`
	Rewritten   int                 `json:"rewritten"`
	Changed     int                 `json:"changed"`
	Deleted     int                 `json:"deleted"`
	Impacted    int                 `json:"impacted"`
	SourceDirty bool                `json:"source_changed"`
	Extracted   bool                `json:"extracted"`
	DurationMS  int64               `json:"duration_ms"`
	ChangedIDs  []string            `json:"changed_ids,omitempty"`
	DeletedIDs  []string            `json:"deleted_ids,omitempty"`
	ImpactedIDs []string            `json:"impacted_ids,omitempty"`
	Reasons     map[string][]string `json:"reasons,omitempty"`
	Error       string              `json:"error,omitempty"`

	names map[string]string // ID -> display name
}

// BatchSummary is the JSON document printed by extract --json and status --json.
type BatchSummary struct {
	Mode      string       `json:"mode"`
	Processed int          `json:"processed"`
	Total     int          `json:"total"`
	Catalogs  []RunSummary `json:"catalogs"`
}

type DoctorSummary struct {
	Mode        string          `json:"mode"`
	RootPath    string          `json:"root_path"`
	ConfigFile  string          `json:"config_file,omitempty"`
	OutputRoot  string          `json:"output_root"`
	Healthy     bool            `json:"healthy"`
	Catalogs    []DoctorCatalog `json:"catalogs,omitempty"`
	Problems    []string        `json:"problems,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
}

type DoctorCatalog struct {
	Name    string   `json:"name"`
	Dir     string   `json:"dir"`
	Source  string   `json:"source,omitempty"`
	Fresh   bool     `json:"fresh"`
	Missing []string `json:"missing,omitempty"`
	Problem string   `json:"problem,omitempty"`
}

func (s RunSummary) name(id string) string {
	if name, ok := s.names[id]; ok {
		return name
	}
	return id
}

func (s RunSummary) displayNames(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.name(id))
	}
	return out
}

func PrintBatchSummary(w io.Writer, batch BatchSummary, asJSON bool) error {
	if asJSON {
		return fileutil.FprintJSON(w, batch)
	}
	for _, summary := range batch.Catalogs {
		PrintRunSummary(w, summary)
	}
	if batch.Mode == "extract" && batch.Total > 1 {
		fmt.Fprintf(w, "processed %d/%d inputs successfully\n", batch.Processed, batch.Total)
	}
	return nil
}

func PrintRunSummary(w io.Writer, summary RunSummary) {
	if summary.Error != "" {
		style.Fprintfail(w, "%s %s: %s", summary.Mode, summary.Catalog, summary.Error)
		return
	}

	if summary.Mode == "extract" {
		style.Fprintok(w, "extract %s complete in %dms", summary.Catalog, summary.DurationMS)
		fmt.Fprintf(w, "output: %s (%s)\n", summary.OutputDir, summary.Format)
		fmt.Fprintf(w, "definitions: files=%d nodes=%d edges=%d\n", summary.Files, summary.Nodes, summary.Edges)
		fmt.Fprintf(w, "changes: changed=%d deleted=%d impacted=%d rewritten=%d\n", summary.Changed, summary.Deleted, summary.Impacted, summary.Rewritten)
		if len(summary.ChangedIDs) > 0 {
			fmt.Fprintf(w, "changed (%d): %s\n", len(summary.ChangedIDs), SummarizePaths(summary.displayNames(summary.ChangedIDs), 8))
		}
		return
	}

	if !summary.Extracted {
		style.Fprintwarn(w, "%s %s: not extracted yet (run pqgraph extract %s)", summary.Mode, summary.Catalog, summary.Source)
		return
	}
	fmt.Fprintf(w,
		"%s %s: source_changed=%t changed=%d deleted=%d impacted=%d duration=%dms\n",
		summary.Mode,
		summary.Catalog,
		summary.SourceDirty,
		summary.Changed,
		summary.Deleted,
		summary.Impacted,
		summary.DurationMS,
	)
	if len(summary.ChangedIDs) > 0 {
		fmt.Fprintf(w, "changed (%d): %s\n", len(summary.ChangedIDs), SummarizePaths(summary.displayNames(summary.ChangedIDs), 8))
	}
	if len(summary.DeletedIDs) > 0 {
		fmt.Fprintf(w, "deleted (%d): %s\n", len(summary.DeletedIDs), SummarizePaths(summary.displayNames(summary.DeletedIDs), 8))
	}
	if len(summary.ImpactedIDs) > 0 {
		fmt.Fprintf(w, "impacted (%d): %s\n", len(summary.ImpactedIDs), SummarizePaths(summary.displayNames(summary.ImpactedIDs), 8))
	}
	for _, id := range summary.ImpactedIDs {
		reasons := summary.Reasons[id]
		if len(reasons) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s <- %s\n", summary.name(id), strings.Join(reasons, "; "))
	}
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}
