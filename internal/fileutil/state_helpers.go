package fileutil

import (
	"sort"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
	"github.com/pqgraph-dev/pqgraph/internal/state"
)

// ApplyDetection records every definition and its direct dependencies in st, replacing
// whatever the previous run stored.
func ApplyDetection(st *state.State, nodes []graph.Node, edges []graph.Edge) {
	deps := make(map[string]map[string]bool, len(nodes))
	for _, edge := range edges {
		if deps[edge.From] == nil {
			deps[edge.From] = make(map[string]bool)
		}
		deps[edge.From][edge.To] = true
	}

	for id := range st.Nodes {
		st.RemoveNode(id)
	}
	for _, node := range nodes {
		var list []string
		if set := deps[node.ID]; len(set) > 0 {
			list = MapKeysSorted(set)
		}
		st.SetNode(node, list)
	}
}

// ImpactedWithReasons expands changed and deleted definitions through reverse
// dependencies and explains why each one is included.
func ImpactedWithReasons(st *state.State, changed, deleted []string) ([]string, map[string][]string) {
	reverseDeps := st.ReverseDependencies()

	reasons := make(map[string][]string)
	seen := make(map[string]bool)
	queue := make([]string, 0, len(changed)+len(deleted))

	for _, id := range changed {
		queue = append(queue, id)
		seen[id] = true
		reasons[id] = appendReason(reasons[id], "changed")
	}
	for _, id := range deleted {
		if !seen[id] {
			queue = append(queue, id)
		}
		seen[id] = true
		reasons[id] = appendReason(reasons[id], "deleted")
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, dependent := range reverseDeps[id] {
			reason := "depends on " + displayName(st, id)
			reasons[dependent] = appendReason(reasons[dependent], reason)
			if seen[dependent] {
				continue
			}
			seen[dependent] = true
			queue = append(queue, dependent)
		}
	}

	impacted := make([]string, 0, len(seen))
	for id := range seen {
		impacted = append(impacted, id)
		sort.Strings(reasons[id])
	}
	sort.Strings(impacted)
	return impacted, reasons
}

func displayName(st *state.State, id string) string {
	if ns, ok := st.Nodes[id]; ok && ns.Name != "" {
		return ns.Name
	}
	return id
}

func appendReason(existing []string, reason string) []string {
	for _, item := range existing {
		if item == reason {
			return existing
		}
	}
	return append(existing, reason)
}
