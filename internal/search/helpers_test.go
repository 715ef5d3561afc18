package search

import (
	"os"
	"path/filepath"
	"testing"
)

func writeIndex(t *testing.T, dir string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, IndexFile), data, 0644); err != nil {
		t.Fatalf("write index: %v", err)
	}
}
