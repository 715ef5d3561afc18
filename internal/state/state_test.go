package state

import (
	"reflect"
	"testing"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
)

func TestChangedAndDeletedNodes(t *testing.T) {
	a := graph.Node{ID: "a", Name: "A", MCode: "1"}
	b := graph.Node{ID: "b", Name: "B", MCode: "2"}
	c := graph.Node{ID: "c", Name: "C", MCode: "3"}

	s := NewState()
	s.SetNode(a, nil)
	s.SetNode(b, nil)
	s.SetNode(c, nil)

	bEdited := b
	bEdited.MCode = "20"
	d := graph.Node{ID: "d", Name: "D", MCode: "4"}
	current := []graph.Node{a, bEdited, d}

	expectSet(t, s.ChangedNodes(current), []string{"b", "d"})
	expectSet(t, s.DeletedNodes(current), []string{"c"})
}

func TestHashNodeCoversKindAndName(t *testing.T) {
	base := graph.Node{Name: "A", Kind: graph.KindQuery, MCode: "1"}
	renamed := base
	renamed.Name = "B"
	retyped := base
	retyped.Kind = graph.KindParameter

	if HashNode(base) == HashNode(renamed) || HashNode(base) == HashNode(retyped) {
		t.Fatalf("expected name and kind to change the hash")
	}
	if HashNode(base) != HashNode(base) {
		t.Fatalf("expected hash to be stable")
	}
}

func TestImpactedNodesClosure(t *testing.T) {
	s := NewState()
	s.Nodes["a"] = NodeState{Dependencies: []string{"b"}}
	s.Nodes["c"] = NodeState{Dependencies: []string{"a"}}
	s.Nodes["d"] = NodeState{Dependencies: []string{"x"}}

	impacted := s.ImpactedNodes([]string{"b"}, nil)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(impacted, want) {
		t.Fatalf("expected impacted %v, got %v", want, impacted)
	}
}

func TestSourceChanged(t *testing.T) {
	s := NewState()
	s.SourceHashes = map[string]string{"model.pbix": "h1"}

	if s.SourceChanged(map[string]string{"model.pbix": "h1"}) {
		t.Fatalf("expected identical hashes to be unchanged")
	}
	if !s.SourceChanged(map[string]string{"model.pbix": "h2"}) {
		t.Fatalf("expected modified hash to be a change")
	}
	if !s.SourceChanged(map[string]string{"model.pbix": "h1", "extra.pq": "h3"}) {
		t.Fatalf("expected added file to be a change")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Fatalf("expected no state in a fresh dir")
	}

	s := NewState()
	s.Source = "model.pbix"
	s.SetNode(graph.Node{ID: "a", Name: "A", Kind: graph.KindFunction, MCode: "(x) => x"}, []string{"b"})
	s.SetOutputHash("queries.md", "abc")
	if err := s.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Source != "model.pbix" || loaded.Nodes["a"].Kind != "function" {
		t.Fatalf("unexpected loaded state %#v", loaded)
	}
	if !reflect.DeepEqual(loaded.Nodes["a"].Dependencies, []string{"b"}) {
		t.Fatalf("expected dependencies to survive, got %v", loaded.Nodes["a"].Dependencies)
	}
	if hash, ok := loaded.GetOutputHash("queries.md"); !ok || hash != "abc" {
		t.Fatalf("expected output hash to survive")
	}
}

func TestMigrateStateSetsVersions(t *testing.T) {
	s := &State{
		Version:         "1",
		DetectorVersion: "",
		OutputVersion:   "",
	}

	migrateState(s)

	if s.Version != CurrentStateVersion {
		t.Fatalf("expected version %q, got %q", CurrentStateVersion, s.Version)
	}
	if s.OutputVersion != CurrentOutputVersion {
		t.Fatalf("expected output version %q, got %q", CurrentOutputVersion, s.OutputVersion)
	}
	if s.DetectorVersion != CurrentDetectorVersion {
		t.Fatalf("expected detector version %q, got %q", CurrentDetectorVersion, s.DetectorVersion)
	}
	if s.Nodes == nil || s.OutputHashes == nil {
		t.Fatalf("expected maps to be initialized")
	}
}

func expectSet(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d (%v)", len(want), len(got), got)
	}

	index := make(map[string]bool, len(got))
	for _, item := range got {
		index[item] = true
	}

	for _, item := range want {
		if !index[item] {
			t.Fatalf("expected item %q in %v", item, got)
		}
	}
}
