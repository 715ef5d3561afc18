package nav

import "sort"

// CollectDependencies lists the definitions node depends on.
func CollectDependencies(l *Lookup, node *IndexNode) []EdgeRecord {
	out := make([]EdgeRecord, 0, len(node.OutEdges))
	for _, targetID := range node.OutEdges {
		target := l.ByID[targetID]
		if target == nil {
			continue
		}
		edgeType, confidence := l.Edge(node.ID, target.ID)
		out = append(out, EdgeRecord{
			Node:       NodeRecordFromNode(target),
			Type:       edgeType,
			Confidence: confidence,
		})
	}
	sortEdgeRecords(out)
	return out
}

// CollectDependents lists the definitions that depend on node.
func CollectDependents(l *Lookup, node *IndexNode) []EdgeRecord {
	out := make([]EdgeRecord, 0, len(node.InEdges))
	for _, sourceID := range node.InEdges {
		source := l.ByID[sourceID]
		if source == nil {
			continue
		}
		edgeType, confidence := l.Edge(source.ID, node.ID)
		out = append(out, EdgeRecord{
			Node:       NodeRecordFromNode(source),
			Type:       edgeType,
			Confidence: confidence,
		})
	}
	sortEdgeRecords(out)
	return out
}

// Trace walks dependencies breadth-first up to depth hops. With reverse set it walks
// dependents instead, which answers "what breaks if this changes".
func Trace(l *Lookup, start *IndexNode, depth int, reverse bool) []TraceHop {
	type queueItem struct {
		id    string
		depth int
	}
	queue := []queueItem{{id: start.ID, depth: 0}}
	seenDepth := map[string]int{start.ID: 0}
	hops := make([]TraceHop, 0)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.depth >= depth {
			continue
		}

		currentNode := l.ByID[current.id]
		if currentNode == nil {
			continue
		}

		next := currentNode.OutEdges
		if reverse {
			next = currentNode.InEdges
		}
		for _, nextID := range next {
			nextNode := l.ByID[nextID]
			if nextNode == nil {
				continue
			}
			from, to := currentNode, nextNode
			if reverse {
				from, to = nextNode, currentNode
			}
			edgeType, confidence := l.Edge(from.ID, to.ID)
			nextDepth := current.depth + 1
			hops = append(hops, TraceHop{
				Depth:      nextDepth,
				From:       NodeRecordFromNode(from),
				To:         NodeRecordFromNode(to),
				Type:       edgeType,
				Confidence: confidence,
			})
			if previousDepth, exists := seenDepth[nextID]; !exists || nextDepth < previousDepth {
				seenDepth[nextID] = nextDepth
				queue = append(queue, queueItem{id: nextID, depth: nextDepth})
			}
		}
	}

	sort.SliceStable(hops, func(i, j int) bool {
		if hops[i].Depth != hops[j].Depth {
			return hops[i].Depth < hops[j].Depth
		}
		if hops[i].From.ID != hops[j].From.ID {
			return hops[i].From.ID < hops[j].From.ID
		}
		return hops[i].To.ID < hops[j].To.ID
	})
	return hops
}

func ShortestPath(lookup *Lookup, fromID, toID string) []string {
	if fromID == toID {
		return []string{fromID}
	}

	queue := []string{fromID}
	visited := map[string]bool{fromID: true}
	parent := map[string]string{}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		node := lookup.ByID[current]
		if node == nil {
			continue
		}
		for _, nextID := range node.OutEdges {
			if visited[nextID] {
				continue
			}
			visited[nextID] = true
			parent[nextID] = current
			if nextID == toID {
				return ReconstructPath(parent, fromID, toID)
			}
			queue = append(queue, nextID)
		}
	}

	return nil
}

func ReconstructPath(parent map[string]string, fromID, toID string) []string {
	out := []string{toID}
	for current := toID; current != fromID; {
		prev, ok := parent[current]
		if !ok {
			return nil
		}
		out = append(out, prev)
		current = prev
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// TopNodes ranks definitions by PageRank, ties broken by ID.
func TopNodes(l *Lookup, n int) []NodeRecord {
	nodes := make([]*IndexNode, 0, len(l.ByID))
	for _, node := range l.ByID {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].PageRank != nodes[j].PageRank {
			return nodes[i].PageRank > nodes[j].PageRank
		}
		return nodes[i].ID < nodes[j].ID
	})
	if n > len(nodes) {
		n = len(nodes)
	}
	if n < 0 {
		n = 0
	}

	out := make([]NodeRecord, 0, n)
	for _, node := range nodes[:n] {
		record := NodeRecordFromNode(node)
		record.PageRank = node.PageRank
		out = append(out, record)
	}
	return out
}

func sortEdgeRecords(records []EdgeRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Node.Name != records[j].Node.Name {
			return records[i].Node.Name < records[j].Node.Name
		}
		return records[i].Node.ID < records[j].Node.ID
	})
}
