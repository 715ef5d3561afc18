package parser

import (
	"errors"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
)

// ErrNoMashup is returned by container readers when a model carries no Power Query part.
var ErrNoMashup = errors.New("no DataMashup part")

// FileNodes holds all definitions read from a single file.
type FileNodes struct {
	Path   string
	Format string
	Nodes  []graph.Node
	Hash   string // file content hash for incremental updates
}

// ParseIssue captures non-fatal reader warnings/errors encountered while scanning files.
type ParseIssue struct {
	File     string `json:"file"`
	Format   string `json:"format,omitempty"`
	Severity string `json:"severity"` // warning | error
	Message  string `json:"message"`
}

// ParseResult holds every definition read from one input.
type ParseResult struct {
	Files    []FileNodes
	RootPath string
	Issues   []ParseIssue
}

// Nodes flattens the result in file order, then in position within each file.
func (r *ParseResult) Nodes() []graph.Node {
	if r == nil {
		return nil
	}
	total := 0
	for _, file := range r.Files {
		total += len(file.Nodes)
	}
	out := make([]graph.Node, 0, total)
	for _, file := range r.Files {
		out = append(out, file.Nodes...)
	}
	return out
}

// Catalog builds the detection catalog for the result.
func (r *ParseResult) Catalog() *graph.Catalog {
	return graph.NewCatalog(r.Nodes())
}

// FileHashes maps each parsed file path to its content hash.
func (r *ParseResult) FileHashes() map[string]string {
	out := make(map[string]string)
	if r == nil {
		return out
	}
	for _, file := range r.Files {
		out[file.Path] = file.Hash
	}
	return out
}
