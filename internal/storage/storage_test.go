package storage

import (
	"path/filepath"
	"testing"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleGraph() ([]graph.Node, []graph.Edge, map[string][]string) {
	loaded := true
	nodes := []graph.Node{
		{ID: "sales", Name: "Sales", Kind: graph.KindQuery, MCode: "let Source = Orders in Source", LoadEnabled: &loaded, Group: "Facts"},
		{ID: "orders", Name: "Orders", Kind: graph.KindQuery, MCode: "Sql.Database(ServerName, \"db\")"},
		{ID: "server", Name: "ServerName", Kind: graph.KindParameter, MCode: "\"srv\" meta [IsParameterQuery=true]"},
		{ID: "report", Name: "Report", Kind: graph.KindQuery, MCode: "Sales"},
	}
	edges := []graph.Edge{
		{From: "sales", To: "orders", Type: graph.EdgeReferences, Confidence: graph.ConfidenceMedium, Evidence: graph.Evidence{Match: "Orders", Line: 1, ColStart: 13}},
		{From: "orders", To: "server", Type: graph.EdgeUsesParameter, Confidence: graph.ConfidenceMedium, Evidence: graph.Evidence{Match: "ServerName", Line: 1, ColStart: 13}},
		{From: "report", To: "sales", Type: graph.EdgeReferences, Confidence: graph.ConfidenceMedium, Evidence: graph.Evidence{Match: "Sales", Line: 1, ColStart: 0}},
	}
	steps := map[string][]string{"sales": {"Source"}}
	return nodes, edges, steps
}

func TestWriteGraphAndStats(t *testing.T) {
	db := openTestDB(t)
	nodes, edges, steps := sampleGraph()
	if err := db.WriteGraph(nodes, edges, steps); err != nil {
		t.Fatalf("WriteGraph failed: %v", err)
	}
	// A second write replaces rather than appends.
	if err := db.WriteGraph(nodes, edges, steps); err != nil {
		t.Fatalf("second WriteGraph failed: %v", err)
	}

	stats, err := db.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Nodes != 4 || stats.Edges != 3 || stats.Steps != 1 {
		t.Fatalf("unexpected stats %#v", stats)
	}
	if stats.ByKind["query"] != 3 || stats.ByKind["parameter"] != 1 {
		t.Fatalf("unexpected kind counts %#v", stats.ByKind)
	}

	found, err := db.NodesByName("Sales")
	if err != nil || len(found) != 1 {
		t.Fatalf("expected Sales by name, got %#v (%v)", found, err)
	}
	if found[0].LoadEnabled == nil || !*found[0].LoadEnabled || found[0].Group != "Facts" {
		t.Fatalf("expected metadata round trip, got %#v", found[0])
	}

	stepNames, err := db.Steps("sales")
	if err != nil || len(stepNames) != 1 || stepNames[0] != "Source" {
		t.Fatalf("unexpected steps %v (%v)", stepNames, err)
	}
}

func TestDirectNeighbours(t *testing.T) {
	db := openTestDB(t)
	nodes, edges, steps := sampleGraph()
	if err := db.WriteGraph(nodes, edges, steps); err != nil {
		t.Fatalf("WriteGraph failed: %v", err)
	}

	deps, err := db.Dependencies("orders")
	if err != nil {
		t.Fatalf("Dependencies failed: %v", err)
	}
	if len(deps) != 1 || deps[0].Node.Name != "ServerName" || deps[0].Type != graph.EdgeUsesParameter {
		t.Fatalf("unexpected dependencies %#v", deps)
	}
	if deps[0].Node.Kind != graph.KindParameter {
		t.Fatalf("expected parameter kind, got %v", deps[0].Node.Kind)
	}

	dependents, err := db.Dependents("orders")
	if err != nil {
		t.Fatalf("Dependents failed: %v", err)
	}
	if len(dependents) != 1 || dependents[0].Node.ID != "sales" {
		t.Fatalf("unexpected dependents %#v", dependents)
	}
}

func TestUpstream(t *testing.T) {
	db := openTestDB(t)
	nodes, edges, steps := sampleGraph()
	if err := db.WriteGraph(nodes, edges, steps); err != nil {
		t.Fatalf("WriteGraph failed: %v", err)
	}

	all, err := db.Upstream("server", 0)
	if err != nil {
		t.Fatalf("Upstream failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 upstream definitions, got %#v", all)
	}
	wantOrder := []string{"orders", "sales", "report"}
	for i, want := range wantOrder {
		if all[i].Node.ID != want || all[i].Depth != i+1 {
			t.Fatalf("expected %s at depth %d, got %#v", want, i+1, all[i])
		}
	}

	limited, err := db.Upstream("server", 2)
	if err != nil {
		t.Fatalf("Upstream failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 definitions within depth 2, got %#v", limited)
	}
}

func TestUpstreamTerminatesOnCycles(t *testing.T) {
	db := openTestDB(t)
	nodes := []graph.Node{
		{ID: "a", Name: "A", Kind: graph.KindQuery, MCode: "B"},
		{ID: "b", Name: "B", Kind: graph.KindQuery, MCode: "A"},
	}
	edges := []graph.Edge{
		{From: "a", To: "b", Type: graph.EdgeReferences, Confidence: graph.ConfidenceMedium, Evidence: graph.Evidence{Match: "B", Line: 1}},
		{From: "b", To: "a", Type: graph.EdgeReferences, Confidence: graph.ConfidenceMedium, Evidence: graph.Evidence{Match: "A", Line: 1}},
	}
	if err := db.WriteGraph(nodes, edges, nil); err != nil {
		t.Fatalf("WriteGraph failed: %v", err)
	}

	reached, err := db.Upstream("a", 0)
	if err != nil {
		t.Fatalf("Upstream failed: %v", err)
	}
	if len(reached) != 1 || reached[0].Node.ID != "b" {
		t.Fatalf("expected only b upstream of a, got %#v", reached)
	}
}

func TestClear(t *testing.T) {
	db := openTestDB(t)
	nodes, edges, steps := sampleGraph()
	if err := db.WriteGraph(nodes, edges, steps); err != nil {
		t.Fatalf("WriteGraph failed: %v", err)
	}
	if err := db.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	stats, err := db.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Nodes != 0 || stats.Edges != 0 || stats.Steps != 0 {
		t.Fatalf("expected empty database, got %#v", stats)
	}
}
