package graph

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"testing"
)

func TestDetectSalesOrdersRoundTrip(t *testing.T) {
	catalog := NewCatalog([]Node{
		{ID: "q1", Name: "Sales", Kind: KindQuery, MCode: "let\n Source = Orders,\n Filtered = Table.SelectRows(Source, each [Amount] > 0)\nin Filtered"},
		{ID: "q2", Name: "Orders", Kind: KindQuery, MCode: "let\n Source = Sql.Database()\nin Source"},
	})

	result := Analyze(catalog, Options{})
	if len(result.Edges) != 1 {
		t.Fatalf("expected exactly one edge, got %#v", result.Edges)
	}
	edge := result.Edges[0]
	if edge.From != "q1" || edge.To != "q2" {
		t.Fatalf("expected q1 -> q2, got %s -> %s", edge.From, edge.To)
	}
	if edge.Type != EdgeReferences {
		t.Fatalf("expected references edge, got %q", edge.Type)
	}
	if edge.Confidence != ConfidenceMedium {
		t.Fatalf("expected medium confidence, got %q", edge.Confidence)
	}
	wantEvidence := Evidence{Match: "Orders", Line: 2, ColStart: 10}
	if edge.Evidence != wantEvidence {
		t.Fatalf("expected evidence %#v, got %#v", wantEvidence, edge.Evidence)
	}

	if got, want := result.Steps["q1"], []string{"Source", "Filtered"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected q1 steps %v, got %v", want, got)
	}
}

func TestDetectFansOutAmbiguousNames(t *testing.T) {
	catalog := NewCatalog([]Node{
		{ID: "foo-1", Name: "Foo", Kind: KindQuery, MCode: "1"},
		{ID: "foo-2", Name: "Foo", Kind: KindQuery, MCode: "2"},
		{ID: "user", Name: "User", Kind: KindQuery, MCode: "let\n x = Foo\nin x"},
	})

	edges := DetectNode(catalog.Nodes()[2], catalog)
	if len(edges) != 2 {
		t.Fatalf("expected one edge per Foo definition, got %#v", edges)
	}
	targets := map[string]bool{}
	for _, edge := range edges {
		targets[edge.To] = true
		if edge.Confidence != ConfidenceLow {
			t.Fatalf("expected low confidence for ambiguous bare match, got %q", edge.Confidence)
		}
		if edge.Evidence != edges[0].Evidence {
			t.Fatalf("expected fan-out edges to share evidence, got %#v and %#v", edge.Evidence, edges[0].Evidence)
		}
	}
	if !targets["foo-1"] || !targets["foo-2"] {
		t.Fatalf("expected edges to both Foo definitions, got %v", targets)
	}
}

func TestQuotedMatchIsHighConfidenceEvenWhenAmbiguous(t *testing.T) {
	catalog := NewCatalog([]Node{
		{ID: "a", Name: "My Query", Kind: KindQuery, MCode: "1"},
		{ID: "b", Name: "My Query", Kind: KindQuery, MCode: "2"},
		{ID: "c", Name: "Report", Kind: KindQuery, MCode: "let\n Source = #\"My Query\"\nin Source"},
	})

	edges := DetectNode(catalog.Nodes()[2], catalog)
	if len(edges) != 2 {
		t.Fatalf("expected two edges, got %#v", edges)
	}
	for _, edge := range edges {
		if edge.Confidence != ConfidenceHigh {
			t.Fatalf("expected high confidence for quoted match, got %q", edge.Confidence)
		}
		want := Evidence{Match: `#"My Query"`, Line: 2, ColStart: 10}
		if edge.Evidence != want {
			t.Fatalf("expected evidence %#v, got %#v", want, edge.Evidence)
		}
	}
}

func TestQuotedMatchTakesPrecedenceOverEarlierBareWord(t *testing.T) {
	catalog := NewCatalog([]Node{
		{ID: "orders", Name: "Orders", Kind: KindQuery, MCode: "1"},
		{ID: "r", Name: "Report", Kind: KindQuery, MCode: "// Orders summary\nlet\n Source = #\"Orders\"\nin Source"},
	})

	edges := DetectNode(catalog.Nodes()[1], catalog)
	if len(edges) != 1 {
		t.Fatalf("expected one edge, got %#v", edges)
	}
	if edges[0].Confidence != ConfidenceHigh || edges[0].Evidence.Line != 3 {
		t.Fatalf("expected quoted match on line 3 to win, got %#v", edges[0])
	}
}

func TestCallClassification(t *testing.T) {
	catalog := NewCatalog([]Node{
		{ID: "fn", Name: "MyFunc", Kind: KindFunction, MCode: "(a, b) => a + b"},
		{ID: "q", Name: "Query", Kind: KindQuery, MCode: "let\n Result = MyFunc(1,2)\nin Result"},
	})

	edges := DetectNode(catalog.Nodes()[1], catalog)
	if len(edges) != 1 || edges[0].Type != EdgeCalls {
		t.Fatalf("expected one calls edge, got %#v", edges)
	}
}

func TestQuotedNameFollowedByParenIsNotACall(t *testing.T) {
	catalog := NewCatalog([]Node{
		{ID: "fn", Name: "Clean Text", Kind: KindFunction, MCode: "(t) => Text.Trim(t)"},
		{ID: "p", Name: "My Param", Kind: KindParameter, MCode: "1 meta [IsParameterQuery=true]"},
		{ID: "q", Name: "Query", Kind: KindQuery, MCode: "let\n a = #\"Clean Text\"(\"x\"),\n b = #\"My Param\"(1)\nin b"},
	})

	edges := DetectNode(catalog.Nodes()[2], catalog)
	if len(edges) != 2 {
		t.Fatalf("expected two edges, got %#v", edges)
	}
	got := map[string]Edge{}
	for _, edge := range edges {
		got[edge.To] = edge
	}
	if edge := got["fn"]; edge.Type != EdgeReferences || edge.Confidence != ConfidenceHigh {
		t.Fatalf("expected high references edge to the function, got %#v", edge)
	}
	if edge := got["p"]; edge.Type != EdgeUsesParameter || edge.Confidence != ConfidenceHigh {
		t.Fatalf("expected high uses_parameter edge to the parameter, got %#v", edge)
	}
}

func TestParameterClassification(t *testing.T) {
	catalog := NewCatalog([]Node{
		{ID: "p", Name: "ServerName", Kind: KindParameter, MCode: `"srv01" meta [IsParameterQuery=true, Type="Text"]`},
		{ID: "q", Name: "Query", Kind: KindQuery, MCode: "let\n Source = Sql.Database(ServerName, \"db\")\nin Source"},
	})

	edges := DetectNode(catalog.Nodes()[1], catalog)
	if len(edges) != 1 {
		t.Fatalf("expected one edge, got %#v", edges)
	}
	if edges[0].Type != EdgeUsesParameter || edges[0].Confidence != ConfidenceMedium {
		t.Fatalf("expected medium uses_parameter edge, got %#v", edges[0])
	}
}

func TestCallBeatsParameterKind(t *testing.T) {
	catalog := NewCatalog([]Node{
		{ID: "p", Name: "Threshold", Kind: KindParameter, MCode: "10 meta [IsParameterQuery=true]"},
		{ID: "q", Name: "Query", Kind: KindQuery, MCode: "let\n a = Threshold,\n b = Threshold ()\nin b"},
	})

	edges := DetectNode(catalog.Nodes()[1], catalog)
	if len(edges) != 1 || edges[0].Type != EdgeCalls {
		t.Fatalf("expected calls to win over uses_parameter, got %#v", edges)
	}
	if edges[0].Evidence.Line != 2 {
		t.Fatalf("expected evidence on the first occurrence, got %#v", edges[0].Evidence)
	}
}

func TestLocalBindingsAreNotReferences(t *testing.T) {
	catalog := NewCatalog([]Node{
		{ID: "orders", Name: "Orders", Kind: KindQuery, MCode: "1"},
		{ID: "r", Name: "Report", Kind: KindQuery, MCode: "let\n Orders = Source.Orders,\n Result = Orders\nin Result"},
	})

	if edges := DetectNode(catalog.Nodes()[1], catalog); len(edges) != 0 {
		t.Fatalf("expected locally bound Orders to be skipped, got %#v", edges)
	}
}

func TestBareWordRespectsTokenBoundaries(t *testing.T) {
	catalog := NewCatalog([]Node{
		{ID: "orders", Name: "Orders", Kind: KindQuery, MCode: "1"},
		{ID: "trzby", Name: "Tržby", Kind: KindQuery, MCode: "2"},
		{ID: "a", Name: "A", Kind: KindQuery, MCode: "let\n x = OrdersArchive,\n y = Tržbyx\nin y"},
		{ID: "b", Name: "B", Kind: KindQuery, MCode: "let\n x = OrdersArchive & orders,\n y = {Tržby}\nin y"},
	})

	if edges := DetectNode(catalog.Nodes()[2], catalog); len(edges) != 0 {
		t.Fatalf("expected no edges for names embedded in longer words, got %#v", edges)
	}

	edges := DetectNode(catalog.Nodes()[3], catalog)
	if len(edges) != 2 {
		t.Fatalf("expected two edges, got %#v", edges)
	}
	if edges[0].To != "orders" || edges[0].Evidence.Match != "orders" || edges[0].Evidence.ColStart != 21 {
		t.Fatalf("expected case-insensitive standalone orders match, got %#v", edges[0])
	}
	if edges[1].To != "trzby" || edges[1].Evidence.ColStart != 6 {
		t.Fatalf("expected Tržby match with character column, got %#v", edges[1])
	}
}

func TestDetectSkipsSelfAndEmptyText(t *testing.T) {
	catalog := NewCatalog([]Node{
		{ID: "a", Name: "Loop", Kind: KindQuery, MCode: "let\n x = Loop\nin x"},
		{ID: "b", Name: "Empty", Kind: KindQuery, MCode: ""},
	})

	if edges := Detect(catalog, Options{}); len(edges) != 0 {
		t.Fatalf("expected no edges, got %#v", edges)
	}
}

func TestDetectInvariantsOverMixedCatalog(t *testing.T) {
	nodes := syntheticNodes(40)
	catalog := NewCatalog(nodes)
	edges := Detect(catalog, Options{})
	if len(edges) == 0 {
		t.Fatalf("expected synthetic catalog to produce edges")
	}

	seenPairs := make(map[string]bool)
	lastSource := ""
	doneSources := make(map[string]bool)
	for _, edge := range edges {
		if edge.From == edge.To {
			t.Fatalf("self loop detected: %#v", edge)
		}
		from, ok := catalog.NodeByID(edge.From)
		if !ok {
			t.Fatalf("unknown source %q", edge.From)
		}
		lines := strings.Count(from.MCode, "\n") + 1
		if edge.Evidence.Line < 1 || edge.Evidence.Line > lines || edge.Evidence.ColStart < 0 {
			t.Fatalf("evidence out of range for %#v (lines=%d)", edge, lines)
		}
		pair := edge.From + "->" + edge.To
		if seenPairs[pair] {
			t.Fatalf("duplicate edge %s", pair)
		}
		seenPairs[pair] = true

		if edge.From != lastSource {
			if doneSources[edge.From] {
				t.Fatalf("edges from %s are not contiguous", edge.From)
			}
			doneSources[lastSource] = true
			lastSource = edge.From
		}
	}
}

func TestParallelDetectMatchesSequential(t *testing.T) {
	catalog := NewCatalog(syntheticNodes(60))

	sequential := Detect(catalog, Options{Workers: 1})
	parallel := Detect(catalog, Options{Workers: 8})
	if !reflect.DeepEqual(sequential, parallel) {
		t.Fatalf("expected parallel detection to match sequential output")
	}
}

func TestWorkerCountDefaultsToGOMAXPROCS(t *testing.T) {
	if got, want := (Options{}).WorkerCount(), runtime.GOMAXPROCS(0); got != want {
		t.Fatalf("expected zero workers to resolve to %d, got %d", want, got)
	}
	if got := (Options{Workers: 3}).WorkerCount(); got != 3 {
		t.Fatalf("expected explicit worker count to be kept, got %d", got)
	}
}

func TestCatalogKeepsFirstSeenNameOrder(t *testing.T) {
	catalog := NewCatalog([]Node{
		{ID: "1", Name: "B"},
		{ID: "2", Name: "A"},
		{ID: "3", Name: "B"},
	})

	if got, want := catalog.Names(), []string{"B", "A"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected names %v, got %v", want, got)
	}
	if catalog.IsUnique("B") || !catalog.IsUnique("A") {
		t.Fatalf("unexpected uniqueness for B/A")
	}
	if len(catalog.Lookup("B")) != 2 {
		t.Fatalf("expected two B definitions")
	}
}

func TestBuildIndexAdjacencyAndRank(t *testing.T) {
	catalog := NewCatalog([]Node{
		{ID: "base", Name: "Base", Kind: KindQuery, MCode: "1"},
		{ID: "mid", Name: "Mid", Kind: KindQuery, MCode: "let\n s = Base\nin s"},
		{ID: "top", Name: "Top", Kind: KindQuery, MCode: "let\n s = Mid,\n t = #\"Base\"\nin t"},
	})

	idx := BuildIndex(catalog, Detect(catalog, Options{}))
	top := idx.Nodes["top"]
	if !reflect.DeepEqual(top.OutEdges, []string{"base", "mid"}) {
		t.Fatalf("unexpected out edges %v", top.OutEdges)
	}
	if top.OutEdgeConfidence["base"] != ConfidenceHigh {
		t.Fatalf("expected quoted Base reference to be high, got %q", top.OutEdgeConfidence["base"])
	}
	if !reflect.DeepEqual(idx.Nodes["base"].InEdges, []string{"mid", "top"}) {
		t.Fatalf("unexpected in edges %v", idx.Nodes["base"].InEdges)
	}
	ranked := idx.TopNodes(1)
	if len(ranked) != 1 || ranked[0].Node.ID != "base" {
		t.Fatalf("expected base to rank first, got %#v", ranked)
	}
	if ordered := idx.Ordered(); ordered[0].Node.ID != "base" || ordered[2].Node.ID != "top" {
		t.Fatalf("expected catalog order to be preserved")
	}
}

func TestKindTextRoundTrip(t *testing.T) {
	for _, kind := range []Kind{KindQuery, KindFunction, KindParameter} {
		text, err := kind.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", kind, err)
		}
		var parsed Kind
		if err := parsed.UnmarshalText(text); err != nil || parsed != kind {
			t.Fatalf("expected %v, got %v (%v)", kind, parsed, err)
		}
	}
	if _, err := ParseKind("table"); err == nil {
		t.Fatalf("expected unknown kind to fail")
	}
}

func syntheticNodes(n int) []Node {
	nodes := make([]Node, 0, n)
	for i := 0; i < n; i++ {
		kind := KindQuery
		switch i % 5 {
		case 3:
			kind = KindFunction
		case 4:
			kind = KindParameter
		}
		name := fmt.Sprintf("Step%02d", i)
		if i%7 == 0 {
			name = "Shared"
		}
		code := fmt.Sprintf("let\n    Source = Step%02d,\n    Next = #\"Step%02d\",\n    Called = Step%02d (1),\n    Other = Shared\nin\n    Called", (i+1)%n, (i+2)%n, (i+3)%n)
		nodes = append(nodes, Node{
			ID:    fmt.Sprintf("node-%02d", i),
			Name:  name,
			Kind:  kind,
			MCode: code,
		})
	}
	return nodes
}
