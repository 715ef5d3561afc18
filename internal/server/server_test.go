package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
	"github.com/pqgraph-dev/pqgraph/internal/nav"
	"github.com/pqgraph-dev/pqgraph/internal/search"
	"github.com/pqgraph-dev/pqgraph/internal/storage"
)

func writeCatalogDir(t *testing.T, withDB bool) string {
	t.Helper()
	dir := t.TempDir()
	nodes := []graph.Node{
		{ID: "sales", Name: "Sales", Kind: graph.KindQuery, MCode: "let\n    Source = Orders,\n    Typed = Table.TransformColumnTypes(Source, {})\nin\n    Typed"},
		{ID: "orders", Name: "Orders", Kind: graph.KindQuery, MCode: "Sql.Database(ServerName, \"db\")"},
		{ID: "server", Name: "ServerName", Kind: graph.KindParameter, MCode: "\"srv\" meta [IsParameterQuery=true]"},
	}
	catalog := graph.NewCatalog(nodes)
	result := graph.Analyze(catalog, graph.Options{})

	navData, err := nav.EncodeIndex("model", graph.BuildIndex(catalog, result.Edges), result.Steps)
	if err != nil {
		t.Fatalf("EncodeIndex failed: %v", err)
	}
	searchData, err := search.Encode(search.Build(nodes, result.Steps))
	if err != nil {
		t.Fatalf("search.Encode failed: %v", err)
	}
	for name, data := range map[string][]byte{nav.IndexFile: navData, search.IndexFile: searchData} {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if withDB {
		db, err := storage.Open(filepath.Join(dir, storage.FileName))
		if err != nil {
			t.Fatalf("storage.Open failed: %v", err)
		}
		defer db.Close()
		if err := db.WriteGraph(nodes, result.Edges, result.Steps); err != nil {
			t.Fatalf("WriteGraph failed: %v", err)
		}
	}
	return dir
}

func connect(t *testing.T, dir string) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	srv := New(dir, "test")
	serverSession, err := srv.Connect(ctx, serverTransport)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any, out any) *mcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool %s failed: %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool %s returned no content", name)
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool %s returned %T", name, result.Content[0])
	}
	if out != nil && !result.IsError {
		if err := json.Unmarshal([]byte(text.Text), out); err != nil {
			t.Fatalf("decode %s result: %v\n%s", name, err, text.Text)
		}
	}
	return result
}

func TestDependenciesAndDependentsTools(t *testing.T) {
	session := connect(t, writeCatalogDir(t, false))

	var deps struct {
		Dependencies []nav.EdgeRecord `json:"dependencies"`
	}
	callTool(t, session, "dependencies", map[string]any{"name": "Orders"}, &deps)
	if len(deps.Dependencies) != 1 || deps.Dependencies[0].Node.Name != "ServerName" {
		t.Fatalf("unexpected dependencies %#v", deps.Dependencies)
	}
	if deps.Dependencies[0].Type != string(graph.EdgeUsesParameter) {
		t.Fatalf("expected uses_parameter, got %q", deps.Dependencies[0].Type)
	}

	var dependents struct {
		Dependents []nav.EdgeRecord `json:"dependents"`
	}
	callTool(t, session, "dependents", map[string]any{"name": "Orders"}, &dependents)
	if len(dependents.Dependents) != 1 || dependents.Dependents[0].Node.Name != "Sales" {
		t.Fatalf("unexpected dependents %#v", dependents.Dependents)
	}
}

func TestStepsAndFindTools(t *testing.T) {
	session := connect(t, writeCatalogDir(t, false))

	var steps struct {
		Steps []string `json:"steps"`
	}
	callTool(t, session, "steps", map[string]any{"name": "Sales"}, &steps)
	if len(steps.Steps) != 2 || steps.Steps[0] != "Source" || steps.Steps[1] != "Typed" {
		t.Fatalf("unexpected steps %#v", steps.Steps)
	}

	var found struct {
		Matches []struct {
			Name string `json:"name"`
		} `json:"matches"`
	}
	callTool(t, session, "find", map[string]any{"query": "server"}, &found)
	if len(found.Matches) == 0 || found.Matches[0].Name != "ServerName" {
		t.Fatalf("unexpected find matches %#v", found.Matches)
	}
}

func TestUnknownDefinitionIsToolError(t *testing.T) {
	session := connect(t, writeCatalogDir(t, false))
	result := callTool(t, session, "dependencies", map[string]any{"name": "Missing"}, nil)
	if !result.IsError {
		t.Fatalf("expected tool error for unknown definition")
	}
}

func TestImpactToolWithAndWithoutSQLite(t *testing.T) {
	for _, withDB := range []bool{false, true} {
		session := connect(t, writeCatalogDir(t, withDB))

		var impact struct {
			Impacted []struct {
				Name  string `json:"name"`
				Depth int    `json:"depth"`
			} `json:"impacted"`
		}
		callTool(t, session, "impact", map[string]any{"name": "ServerName"}, &impact)
		if len(impact.Impacted) != 2 {
			t.Fatalf("withDB=%v: expected 2 impacted definitions, got %#v", withDB, impact.Impacted)
		}
		if impact.Impacted[0].Name != "Orders" || impact.Impacted[0].Depth != 1 {
			t.Fatalf("withDB=%v: expected Orders first, got %#v", withDB, impact.Impacted)
		}
		if impact.Impacted[1].Name != "Sales" || impact.Impacted[1].Depth != 2 {
			t.Fatalf("withDB=%v: expected Sales second, got %#v", withDB, impact.Impacted)
		}
	}
}
