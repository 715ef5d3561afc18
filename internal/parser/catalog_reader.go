package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
)

// CatalogReader reads a JSON catalog: either an array of definitions or an object with
// a "nodes" array.
type CatalogReader struct{}

type catalogEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	MCode       string `json:"m_code"`
	Expression  string `json:"expression"`
	Group       string `json:"group"`
	LoadEnabled *bool  `json:"load_enabled"`
}

type catalogDocument struct {
	Nodes []catalogEntry `json:"nodes"`
}

func (CatalogReader) Format() string       { return "catalog" }
func (CatalogReader) Extensions() []string { return []string{".json"} }

func (CatalogReader) Read(filename string, content []byte) ([]graph.Node, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var entries []catalogEntry
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode catalog %s: %w", filename, err)
		}
	case '{':
		var doc catalogDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode catalog %s: %w", filename, err)
		}
		entries = doc.Nodes
	default:
		return nil, fmt.Errorf("failed to decode catalog %s: expected an array or an object with \"nodes\"", filename)
	}

	nodes := make([]graph.Node, 0, len(entries))
	for i, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog %s: entry %d has no name", filename, i)
		}
		code := entry.MCode
		if code == "" {
			code = entry.Expression
		}

		kind := InferKind(code)
		if entry.Kind != "" {
			parsed, err := graph.ParseKind(entry.Kind)
			if err != nil {
				return nil, fmt.Errorf("catalog %s: entry %q: %w", filename, name, err)
			}
			kind = parsed
		}

		nodes = append(nodes, graph.Node{
			ID:          strings.TrimSpace(entry.ID),
			Name:        name,
			Kind:        kind,
			MCode:       code,
			Group:       entry.Group,
			LoadEnabled: entry.LoadEnabled,
		})
	}
	return nodes, nil
}
