package bench

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
	"github.com/pqgraph-dev/pqgraph/internal/parser"
)

func BenchmarkParseAndDetect_MediumModel(b *testing.B) {
	root := b.TempDir()
	createSyntheticModel(b, root, 250)

	registry := parser.DefaultRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, err := registry.ParseDirectory(root, nil)
		if err != nil {
			b.Fatalf("parse failed: %v", err)
		}
		analysis := graph.Analyze(result.Catalog(), graph.Options{})
		if len(analysis.Edges) == 0 {
			b.Fatalf("expected edges")
		}
	}
}

func BenchmarkDetect_Workers(b *testing.B) {
	root := b.TempDir()
	createSyntheticModel(b, root, 500)

	result, err := parser.DefaultRegistry().ParseDirectory(root, nil)
	if err != nil {
		b.Fatalf("parse failed: %v", err)
	}
	catalog := result.Catalog()

	for _, workers := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				graph.Detect(catalog, graph.Options{Workers: workers})
			}
		})
	}
}

// createSyntheticModel writes a chain of staged queries: each query reads the previous
// one through a shared cleaning function and a server parameter.
func createSyntheticModel(tb testing.TB, root string, queries int) {
	tb.Helper()

	write := func(name, code string) {
		path := filepath.Join(root, fmt.Sprintf("group%d", len(name)%10), name+".pq")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			tb.Fatalf("mkdir failed: %v", err)
		}
		if err := os.WriteFile(path, []byte(code), 0644); err != nil {
			tb.Fatalf("write failed: %v", err)
		}
	}

	write("ServerName", `"sql01" meta [IsParameterQuery=true, Type="Text"]`)
	write("fnClean", `(t as table) as table => Table.Distinct(t)`)
	write("Stage_000", `let
    Source = Sql.Database(ServerName, "warehouse")
in
    Source`)
	for i := 1; i < queries; i++ {
		write(fmt.Sprintf("Stage_%03d", i), fmt.Sprintf(`let
    Source = Stage_%03d,
    #"Cleaned %d" = fnClean(Source),
    Added = Table.AddColumn(#"Cleaned %d", "Stage", each %d)
in
    Added`, i-1, i, i, i))
	}
}
