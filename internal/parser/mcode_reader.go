package parser

import (
	"path/filepath"
	"strings"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
	"github.com/pqgraph-dev/pqgraph/internal/mcode"
)

// MCodeReader reads raw M files. A section document yields one definition per member;
// any other file is a single definition named after the file stem.
type MCodeReader struct{}

func (MCodeReader) Format() string       { return "mcode" }
func (MCodeReader) Extensions() []string { return []string{".pq", ".pqm", ".m"} }

func (MCodeReader) Read(filename string, content []byte) ([]graph.Node, error) {
	text := string(content)
	if section, ok := mcode.ParseSection(text); ok {
		return sectionNodes(section), nil
	}

	code := strings.TrimSpace(strings.TrimPrefix(text, "\ufeff"))
	if code == "" {
		return nil, nil
	}
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return []graph.Node{{
		Name:  name,
		Kind:  InferKind(code),
		MCode: code,
	}}, nil
}

func sectionNodes(section *mcode.Section) []graph.Node {
	nodes := make([]graph.Node, 0, len(section.Members))
	for _, member := range section.Members {
		nodes = append(nodes, graph.Node{
			Name:  member.Name,
			Kind:  InferKind(member.Expression),
			MCode: member.Expression,
		})
	}
	return nodes
}
