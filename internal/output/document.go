package output

import (
	"time"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
)

// Document is everything written for one catalog.
type Document struct {
	Name        string // catalog name, the report title
	Source      string // input path as given
	Nodes       []graph.Node
	Edges       []graph.Edge
	Steps       map[string][]string // node ID -> steps
	ToolVersion string
	GeneratedAt time.Time
}

// edgesBySource groups edges by source ID, keeping detection order.
func (d *Document) edgesBySource() map[string][]graph.Edge {
	out := make(map[string][]graph.Edge)
	for _, edge := range d.Edges {
		out[edge.From] = append(out[edge.From], edge)
	}
	return out
}

// names maps each ID to the first definition name carrying it.
func (d *Document) names() map[string]string {
	out := make(map[string]string, len(d.Nodes))
	for _, node := range d.Nodes {
		if _, ok := out[node.ID]; !ok {
			out[node.ID] = node.Name
		}
	}
	return out
}

func (d *Document) stepsOf(id string) []string {
	steps := d.Steps[id]
	if steps == nil {
		return []string{}
	}
	return steps
}
