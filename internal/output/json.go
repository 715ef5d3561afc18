package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pqgraph-dev/pqgraph/internal/fileutil"
	"github.com/pqgraph-dev/pqgraph/internal/graph"
)

const graphComment = "This file holds the output of pqgraph: 'metadata' describes the run, " +
	"'nodes' lists the definitions (queries/functions/parameters) and 'edges' lists the detected dependencies."

type graphMetadata struct {
	Tool        string `json:"tool"`
	ToolVersion string `json:"tool_version"`
	Source      string `json:"source"`
	GeneratedAt string `json:"generated_at"`
	ParserMode  string `json:"parser_mode"`
}

type graphNode struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Kind        graph.Kind `json:"kind"`
	Group       *string    `json:"group"`
	LoadEnabled *bool      `json:"load_enabled"`
	Steps       []string   `json:"steps"`
}

type graphDocument struct {
	Comment  string        `json:"_comment"`
	Metadata graphMetadata `json:"metadata"`
	Nodes    []graphNode   `json:"nodes"`
	Edges    []graph.Edge  `json:"edges"`
}

// nodeRecord is one line of nodes.jsonl.
type nodeRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Kind        graph.Kind `json:"kind"`
	Group       string     `json:"group,omitempty"`
	LoadEnabled *bool      `json:"load_enabled,omitempty"`
	Source      string     `json:"source,omitempty"`
	Steps       []string   `json:"steps"`
	MCode       string     `json:"m_code"`
}

// Manifest summarizes a jsonl output directory.
type Manifest struct {
	Tool        string   `json:"tool"`
	ToolVersion string   `json:"tool_version"`
	Source      string   `json:"source"`
	Catalog     string   `json:"catalog"`
	GeneratedAt string   `json:"generated_at"`
	ParserMode  string   `json:"parser_mode"`
	Format      Format   `json:"format"`
	NodeCount   int      `json:"node_count"`
	EdgeCount   int      `json:"edge_count"`
	Files       []string `json:"files"`
}

// RenderGraphJSON renders dependency_graph.json.
func RenderGraphJSON(doc *Document) ([]byte, error) {
	out := graphDocument{
		Comment:  graphComment,
		Metadata: doc.metadata(),
		Nodes:    make([]graphNode, 0, len(doc.Nodes)),
		Edges:    doc.Edges,
	}
	if out.Edges == nil {
		out.Edges = []graph.Edge{}
	}
	for _, node := range doc.Nodes {
		gn := graphNode{
			ID:          node.ID,
			Name:        node.Name,
			Kind:        node.Kind,
			LoadEnabled: node.LoadEnabled,
			Steps:       doc.stepsOf(node.ID),
		}
		if node.Group != "" {
			group := node.Group
			gn.Group = &group
		}
		out.Nodes = append(out.Nodes, gn)
	}
	return marshalIndent(out)
}

// RenderJSONL renders nodes.jsonl and edges.jsonl.
func RenderJSONL(doc *Document) (nodes []byte, edges []byte, err error) {
	records := make([]nodeRecord, 0, len(doc.Nodes))
	for _, node := range doc.Nodes {
		records = append(records, nodeRecord{
			ID:          node.ID,
			Name:        node.Name,
			Kind:        node.Kind,
			Group:       node.Group,
			LoadEnabled: node.LoadEnabled,
			Source:      node.Source,
			Steps:       doc.stepsOf(node.ID),
			MCode:       node.MCode,
		})
	}
	if nodes, err = fileutil.EncodeJSONL(records); err != nil {
		return nil, nil, err
	}
	if edges, err = fileutil.EncodeJSONL(doc.Edges); err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}

// RenderManifest renders manifest.json for the jsonl format.
func RenderManifest(doc *Document) ([]byte, error) {
	meta := doc.metadata()
	return marshalIndent(Manifest{
		Tool:        meta.Tool,
		ToolVersion: meta.ToolVersion,
		Source:      meta.Source,
		Catalog:     doc.Name,
		GeneratedAt: meta.GeneratedAt,
		ParserMode:  meta.ParserMode,
		Format:      FormatJSONL,
		NodeCount:   len(doc.Nodes),
		EdgeCount:   len(doc.Edges),
		Files:       FormatJSONL.Files(),
	})
}

func (d *Document) metadata() graphMetadata {
	generated := d.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	return graphMetadata{
		Tool:        ToolName,
		ToolVersion: d.ToolVersion,
		Source:      d.Source,
		GeneratedAt: generated.Format(time.RFC3339),
		ParserMode:  ParserMode,
	}
}

func marshalIndent(value any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
