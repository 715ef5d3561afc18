package graph

import "sort"

// IndexNode is a definition with its resolved neighbours.
type IndexNode struct {
	Node              *Node
	OutEdges          []string              // definitions this node depends on
	OutEdgeConfidence map[string]Confidence // target ID -> strongest confidence
	OutEdgeType       map[string]EdgeType   // target ID -> type of the strongest edge
	InEdges           []string              // definitions depending on this node
	PageRank          float64               // importance score
}

// Index is the adjacency view of a detection result.
type Index struct {
	Nodes map[string]*IndexNode // ID -> node
	order []string
}

// BuildIndex folds an edge list into per-node adjacency and ranks the nodes.
func BuildIndex(catalog *Catalog, edges []Edge) *Index {
	idx := &Index{Nodes: make(map[string]*IndexNode)}
	if catalog == nil {
		return idx
	}

	for _, node := range catalog.Nodes() {
		if _, exists := idx.Nodes[node.ID]; exists {
			continue
		}
		idx.Nodes[node.ID] = &IndexNode{
			Node:              node,
			OutEdges:          make([]string, 0),
			OutEdgeConfidence: make(map[string]Confidence),
			OutEdgeType:       make(map[string]EdgeType),
			InEdges:           make([]string, 0),
		}
		idx.order = append(idx.order, node.ID)
	}

	for _, edge := range edges {
		src, ok := idx.Nodes[edge.From]
		if !ok || edge.From == edge.To {
			continue
		}
		src.OutEdges = append(src.OutEdges, edge.To)
		if edge.Confidence.rank() >= src.OutEdgeConfidence[edge.To].rank() {
			src.OutEdgeConfidence[edge.To] = edge.Confidence
			src.OutEdgeType[edge.To] = edge.Type
		}
		if target, ok := idx.Nodes[edge.To]; ok {
			target.InEdges = append(target.InEdges, edge.From)
		}
	}

	idx.normalizeEdges()
	idx.calculatePageRank(20, 0.85)
	return idx
}

// Ordered returns the nodes in catalog order.
func (idx *Index) Ordered() []*IndexNode {
	out := make([]*IndexNode, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.Nodes[id])
	}
	return out
}

// calculatePageRank computes importance scores for all nodes
func (idx *Index) calculatePageRank(iterations int, dampingFactor float64) {
	n := float64(len(idx.Nodes))
	if n == 0 {
		return
	}

	for _, node := range idx.Nodes {
		node.PageRank = 1.0 / n
	}

	for i := 0; i < iterations; i++ {
		newRanks := make(map[string]float64, len(idx.Nodes))

		for id, node := range idx.Nodes {
			rank := (1 - dampingFactor) / n

			// Sum contributions from incoming edges
			for _, inID := range node.InEdges {
				if inNode, ok := idx.Nodes[inID]; ok {
					outDegree := float64(len(inNode.OutEdges))
					if outDegree > 0 {
						rank += dampingFactor * (inNode.PageRank / outDegree)
					}
				}
			}

			newRanks[id] = rank
		}

		for id, rank := range newRanks {
			idx.Nodes[id].PageRank = rank
		}
	}
}

// TopNodes returns the most depended-upon nodes by PageRank
func (idx *Index) TopNodes(n int) []*IndexNode {
	nodes := make([]*IndexNode, 0, len(idx.Nodes))
	for _, node := range idx.Nodes {
		nodes = append(nodes, node)
	}

	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].PageRank == nodes[j].PageRank {
			return nodes[i].Node.ID < nodes[j].Node.ID
		}
		return nodes[i].PageRank > nodes[j].PageRank
	})

	if n > len(nodes) {
		n = len(nodes)
	}
	if n < 0 {
		n = 0
	}
	return nodes[:n]
}

func (idx *Index) normalizeEdges() {
	for _, node := range idx.Nodes {
		node.OutEdges = dedupeAndSort(node.OutEdges)
		node.InEdges = dedupeAndSort(node.InEdges)
	}
}

func dedupeAndSort(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}
