package bench

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
	"github.com/pqgraph-dev/pqgraph/internal/parser"
)

func BenchmarkDetectionQuality_Curated(b *testing.B) {
	catalog, expectedEdges := curatedFixture(b)
	var precision float64
	var recall float64

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		edges := graph.Detect(catalog, graph.Options{})
		precision, recall = edgeMetrics(catalog, edges, expectedEdges)
	}
	b.StopTimer()

	b.ReportMetric(precision, "precision")
	b.ReportMetric(recall, "recall")
}

func BenchmarkNavigationUsability_CommonQueries(b *testing.B) {
	catalog, _ := curatedFixture(b)
	analysis := graph.Analyze(catalog, graph.Options{})
	idx := graph.BuildIndex(catalog, analysis.Edges)

	tokenCount := 0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tokenCount = estimateTokenCount(commonQueryPack(idx, analysis.Steps))
	}
	b.StopTimer()
	b.ReportMetric(float64(tokenCount), "tokens/query_pack")
}

// Every true dependency of the curated model is found. The only false positive is the
// "Orders" item name inside a string literal of Raw Orders.
func TestCuratedFixtureRecall(t *testing.T) {
	catalog, expected := curatedFixture(t)
	edges := graph.Detect(catalog, graph.Options{Workers: 4})

	precision, recall := edgeMetrics(catalog, edges, expected)
	if recall != 1 {
		t.Fatalf("expected recall 1, got %.3f", recall)
	}
	if precision < 0.85 {
		t.Fatalf("expected precision >= 0.85, got %.3f", precision)
	}
}

func curatedFixture(tb testing.TB) (*graph.Catalog, map[string]bool) {
	tb.Helper()

	result, err := parser.DefaultRegistry().ParseDirectory(filepath.Join("..", "..", "fixtures", "pq", "model"), nil)
	if err != nil {
		tb.Fatalf("failed to parse fixture model: %v", err)
	}
	if len(result.Issues) > 0 {
		tb.Fatalf("unexpected parse issues: %+v", result.Issues)
	}

	expected := map[string]bool{
		"Raw Orders->ServerName": true,
		"Orders->Raw Orders":     true,
		"Orders->fnCleanText":    true,
		"Customers->ServerName":  true,
		"Sales->Orders":          true,
		"Sales->Customers":       true,
	}

	return result.Catalog(), expected
}

func edgeMetrics(catalog *graph.Catalog, edges []graph.Edge, expected map[string]bool) (precision float64, recall float64) {
	actual := make(map[string]bool)
	for _, edge := range edges {
		from, ok := catalog.NodeByID(edge.From)
		if !ok {
			continue
		}
		to, ok := catalog.NodeByID(edge.To)
		if !ok {
			continue
		}
		actual[from.Name+"->"+to.Name] = true
	}

	tp := 0
	fp := 0
	fn := 0
	for key := range actual {
		if expected[key] {
			tp++
		} else {
			fp++
		}
	}
	for key := range expected {
		if !actual[key] {
			fn++
		}
	}

	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	return precision, recall
}

func commonQueryPack(idx *graph.Index, steps map[string][]string) string {
	lines := make([]string, 0)
	for _, node := range idx.Ordered() {
		lines = append(lines, node.Node.Name+" "+node.Node.Kind.String())
		if len(node.OutEdges) > 0 {
			lines = append(lines, "DEPENDS "+node.Node.Name+"="+strings.Join(node.OutEdges, ","))
		}
		if list := steps[node.Node.ID]; len(list) > 0 {
			lines = append(lines, "STEPS "+node.Node.Name+"="+strings.Join(list, ","))
		}
	}
	return strings.Join(lines, "\n")
}

func estimateTokenCount(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return len(strings.Fields(text))
}
