package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pqgraph-dev/pqgraph/internal/nav"
	"github.com/pqgraph-dev/pqgraph/internal/search"
)

type NodeArgs struct {
	Name string `json:"name" jsonschema:"name or id of the query, function or parameter"`
}

type FindArgs struct {
	Query string `json:"query" jsonschema:"free-text search over names, steps and M code"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 10)"`
}

type ImpactArgs struct {
	Name  string `json:"name" jsonschema:"name or id of the definition that changes"`
	Depth int    `json:"depth,omitempty" jsonschema:"maximum hops to follow (0 = unlimited)"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "dependencies",
		Description: "Lists the queries, functions and parameters a definition depends on",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args NodeArgs) (*mcp.CallToolResult, any, error) {
		lookup, node, result := s.resolve(args.Name)
		if result != nil {
			return result, nil, nil
		}
		return jsonResult(map[string]any{
			"node":         nav.NodeRecordFromNode(node),
			"dependencies": nav.CollectDependencies(lookup, node),
		}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "dependents",
		Description: "Lists the definitions that directly depend on a definition",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args NodeArgs) (*mcp.CallToolResult, any, error) {
		lookup, node, result := s.resolve(args.Name)
		if result != nil {
			return result, nil, nil
		}
		return jsonResult(map[string]any{
			"node":       nav.NodeRecordFromNode(node),
			"dependents": nav.CollectDependents(lookup, node),
		}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "steps",
		Description: "Lists the let-block step names of a definition in order",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args NodeArgs) (*mcp.CallToolResult, any, error) {
		_, node, result := s.resolve(args.Name)
		if result != nil {
			return result, nil, nil
		}
		steps := node.Steps
		if steps == nil {
			steps = []string{}
		}
		return jsonResult(map[string]any{
			"node":  nav.NodeRecordFromNode(node),
			"steps": steps,
		}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find",
		Description: "Searches definitions by name, step names and M code, tolerating typos",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FindArgs) (*mcp.CallToolResult, any, error) {
		lookup, err := s.lookup()
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		index, err := s.searchIndex()
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}

		type match struct {
			nav.NodeRecord
			Score float64 `json:"score"`
		}
		matches := make([]match, 0)
		for _, hit := range search.Search(index, args.Query, args.Limit) {
			if node := lookup.ByID[hit.ID]; node != nil {
				matches = append(matches, match{NodeRecord: nav.NodeRecordFromNode(node), Score: hit.Score})
			}
		}
		return jsonResult(map[string]any{
			"query":   args.Query,
			"matches": matches,
		}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "impact",
		Description: "Lists every definition that depends on a definition, directly or transitively",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ImpactArgs) (*mcp.CallToolResult, any, error) {
		lookup, node, result := s.resolve(args.Name)
		if result != nil {
			return result, nil, nil
		}
		impacted, err := s.impact(lookup, node, args.Depth)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return jsonResult(map[string]any{
			"node":     nav.NodeRecordFromNode(node),
			"impacted": impacted,
		}), nil, nil
	})
}

type impactedNode struct {
	nav.NodeRecord
	Depth int `json:"depth"`
}

// impact prefers the SQLite export, which answers with one recursive query, and falls
// back to walking the navigation index.
func (s *Server) impact(lookup *nav.Lookup, node *nav.IndexNode, depth int) ([]impactedNode, error) {
	db, err := s.openStore()
	if err != nil {
		return nil, err
	}
	out := make([]impactedNode, 0)
	if db != nil {
		defer db.Close()
		reached, err := db.Upstream(node.ID, depth)
		if err != nil {
			return nil, fmt.Errorf("failed to query upstream definitions: %w", err)
		}
		for _, r := range reached {
			record := nav.NodeRecordFromNode(lookup.ByID[r.Node.ID])
			if record.ID == "" {
				record = nav.NodeRecord{ID: r.Node.ID, Name: r.Node.Name, Kind: r.Node.Kind.String()}
			}
			out = append(out, impactedNode{NodeRecord: record, Depth: r.Depth})
		}
		return out, nil
	}

	if depth <= 0 {
		depth = len(lookup.ByID)
	}
	seen := map[string]bool{node.ID: true}
	for _, hop := range nav.Trace(lookup, node, depth, true) {
		if seen[hop.From.ID] {
			continue
		}
		seen[hop.From.ID] = true
		out = append(out, impactedNode{NodeRecord: hop.From, Depth: hop.Depth})
	}
	return out, nil
}

func (s *Server) resolve(name string) (*nav.Lookup, *nav.IndexNode, *mcp.CallToolResult) {
	lookup, err := s.lookup()
	if err != nil {
		return nil, nil, errorResult(err.Error())
	}
	node, err := nav.ResolveSingleNode(lookup, name)
	if err != nil {
		return nil, nil, errorResult(err.Error())
	}
	return lookup, node, nil
}
