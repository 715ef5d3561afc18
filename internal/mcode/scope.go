package mcode

import "strings"

// LocalNames returns the names bound inside the definition's let block.
//
// The block is split on every comma regardless of nesting, so a binding whose value
// contains a call like f(a, b = 1) can leak a bogus name. Callers only use the set to
// suppress cross-references, where a spurious entry costs at most one missed edge.
func LocalNames(code string) map[string]struct{} {
	names := make(map[string]struct{})
	block, ok := LetBlock(code)
	if !ok {
		return names
	}

	for _, chunk := range strings.Split(block, ",") {
		chunk = strings.TrimSpace(chunk)
		idx := strings.Index(chunk, "=")
		if idx < 0 {
			continue
		}
		name := Dequote(strings.TrimSpace(chunk[:idx]))
		if name == "" {
			continue
		}
		names[name] = struct{}{}
	}
	return names
}

// IsLocal reports whether name is in the local set.
func IsLocal(local map[string]struct{}, name string) bool {
	_, ok := local[name]
	return ok
}
