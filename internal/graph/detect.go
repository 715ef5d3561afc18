package graph

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pqgraph-dev/pqgraph/internal/mcode"
)

// Options tunes a detection run.
type Options struct {
	// Workers > 1 scans definitions concurrently. Zero means GOMAXPROCS. Output order
	// does not change.
	Workers int
}

// WorkerCount resolves Workers, mapping zero to GOMAXPROCS.
func (o Options) WorkerCount() int {
	if o.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

// Result holds everything one detection run derives from a catalog.
type Result struct {
	Edges []Edge
	Steps map[string][]string // node ID -> step names in declaration order
}

// DetectNode returns the edges originating from a single definition.
func DetectNode(node *Node, catalog *Catalog) []Edge {
	if node == nil {
		return nil
	}
	local := mcode.LocalNames(node.MCode)
	matches := Scan(node, local, catalog)
	if len(matches) == 0 {
		return nil
	}

	edges := make([]Edge, 0, len(matches))
	for _, m := range matches {
		edge := Classify(m, catalog)
		if edge.From == edge.To {
			continue
		}
		edges = append(edges, edge)
	}
	return edges
}

// Detect runs DetectNode over every definition in catalog order and concatenates the
// results. Edges from one source stay contiguous.
func Detect(catalog *Catalog, opts Options) []Edge {
	if catalog == nil || catalog.Len() == 0 {
		return nil
	}

	nodes := catalog.Nodes()
	perNode := make([][]Edge, len(nodes))

	workers := opts.WorkerCount()
	if workers <= 1 {
		for i, node := range nodes {
			perNode[i] = DetectNode(node, catalog)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(workers)
		for i, node := range nodes {
			g.Go(func() error {
				perNode[i] = DetectNode(node, catalog)
				return nil
			})
		}
		_ = g.Wait()
	}

	total := 0
	for _, edges := range perNode {
		total += len(edges)
	}
	out := make([]Edge, 0, total)
	for _, edges := range perNode {
		out = append(out, edges...)
	}
	return out
}

// Analyze detects edges and extracts the step list of every definition.
func Analyze(catalog *Catalog, opts Options) *Result {
	result := &Result{
		Edges: Detect(catalog, opts),
		Steps: make(map[string][]string),
	}
	if catalog == nil {
		return result
	}
	for _, node := range catalog.Nodes() {
		if _, done := result.Steps[node.ID]; done {
			continue
		}
		result.Steps[node.ID] = mcode.Steps(node.MCode)
	}
	return result
}
