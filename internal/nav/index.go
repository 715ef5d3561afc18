package nav

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
	"github.com/pqgraph-dev/pqgraph/internal/search"
)

// ErrIndexMissing is returned when no navigation index can be found.
var ErrIndexMissing = errors.New("navigation index missing")

// EncodeIndex renders the navigation index of one catalog.
func EncodeIndex(catalog string, idx *graph.Index, steps map[string][]string) ([]byte, error) {
	ordered := idx.Ordered()
	nodes := make([]IndexNode, 0, len(ordered))
	for _, node := range ordered {
		outConf := make([]EdgeConfidence, 0, len(node.OutEdges))
		for _, targetID := range node.OutEdges {
			outConf = append(outConf, EdgeConfidence{
				TargetID:   targetID,
				Type:       string(node.OutEdgeType[targetID]),
				Confidence: string(node.OutEdgeConfidence[targetID]),
			})
		}

		nodes = append(nodes, IndexNode{
			ID:            node.Node.ID,
			Name:          node.Node.Name,
			Kind:          node.Node.Kind.String(),
			Source:        node.Node.Source,
			Group:         node.Node.Group,
			LoadEnabled:   node.Node.LoadEnabled,
			Steps:         append([]string(nil), steps[node.Node.ID]...),
			OutEdges:      append([]string(nil), node.OutEdges...),
			InEdges:       append([]string(nil), node.InEdges...),
			OutConfidence: outConf,
			PageRank:      node.PageRank,
		})
	}

	index := Index{
		Version: IndexVersion,
		Catalog: catalog,
		Nodes:   nodes,
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode navigation index: %w", err)
	}
	return append(data, '\n'), nil
}

// LoadLookup reads the navigation index of an output directory.
func LoadLookup(dir string) (*Lookup, error) {
	path := filepath.Join(dir, IndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s (run pqgraph extract)", ErrIndexMissing, path)
		}
		return nil, fmt.Errorf("failed to read navigation index: %w", err)
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to decode navigation index: %w", err)
	}
	return NewLookup(&index), nil
}

func NewLookup(index *Index) *Lookup {
	lookup := &Lookup{
		Catalog: index.Catalog,
		ByID:    make(map[string]*IndexNode, len(index.Nodes)),
		ByName:  make(map[string][]string),
		byFold:  make(map[string][]string),
	}
	for i := range index.Nodes {
		node := &index.Nodes[i]
		lookup.ByID[node.ID] = node
		lookup.ByName[node.Name] = append(lookup.ByName[node.Name], node.ID)
		folded := strings.ToLower(node.Name)
		lookup.byFold[folded] = append(lookup.byFold[folded], node.ID)
	}
	for name := range lookup.ByName {
		sort.Strings(lookup.ByName[name])
	}
	for name := range lookup.byFold {
		sort.Strings(lookup.byFold[name])
	}
	return lookup
}

// Resolve matches an exact ID, then an exact name, then a case-insensitive name.
func Resolve(l *Lookup, query string) []*IndexNode {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if node, ok := l.ByID[query]; ok {
		return []*IndexNode{node}
	}
	ids := l.ByName[query]
	if len(ids) == 0 {
		ids = l.byFold[strings.ToLower(query)]
	}
	return l.nodes(ids)
}

// ResolveWithOptions falls back to the search index when nothing resolves exactly and
// fuzzy matching is on.
func ResolveWithOptions(l *Lookup, index *search.Index, query string, opts ResolveOptions) []*IndexNode {
	matches := Resolve(l, query)
	if len(matches) > 0 || !opts.Fuzzy || index == nil {
		return matches
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	results := search.Search(index, query, limit)
	ids := make([]string, 0, len(results))
	for _, result := range results {
		ids = append(ids, result.ID)
	}
	return l.nodes(ids)
}

func ResolveSingleNode(l *Lookup, query string) (*IndexNode, error) {
	matches := Resolve(l, query)
	if len(matches) == 0 {
		return nil, fmt.Errorf("definition %q not found", query)
	}
	if len(matches) == 1 {
		return matches[0], nil
	}

	options := make([]string, 0, len(matches))
	for _, match := range matches {
		options = append(options, match.ID)
	}
	sort.Strings(options)
	return nil, fmt.Errorf("definition %q is ambiguous; use one of: %s", query, strings.Join(options, ", "))
}

func NodeRecordFromNode(node *IndexNode) NodeRecord {
	if node == nil {
		return NodeRecord{}
	}
	return NodeRecord{
		ID:          node.ID,
		Name:        node.Name,
		Kind:        node.Kind,
		Source:      node.Source,
		Group:       node.Group,
		LoadEnabled: node.LoadEnabled,
	}
}

// Edge returns the type and confidence of the strongest edge from one node to another.
func (l *Lookup) Edge(fromID, toID string) (edgeType, confidence string) {
	from := l.ByID[fromID]
	if from == nil {
		return "", ""
	}
	for _, item := range from.OutConfidence {
		if item.TargetID == toID {
			return item.Type, item.Confidence
		}
	}
	return "", ""
}

func (l *Lookup) nodes(ids []string) []*IndexNode {
	out := make([]*IndexNode, 0, len(ids))
	for _, id := range ids {
		if node := l.ByID[id]; node != nil {
			out = append(out, node)
		}
	}
	return out
}
