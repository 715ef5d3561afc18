package parser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
)

var parameterMetaPattern = regexp.MustCompile(`(?is)\bmeta\s*\[[^\]]*\bIsParameterQuery\s*=\s*true\b`)

// StableNodeID returns a deterministic ID for a definition.
// Format: kind__sanitized-name__uuid5hex, where the UUID is derived from the absolute
// source path and "kind:name".
func StableNodeID(source string, kind graph.Kind, name string) string {
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}
	namespace := uuid.NewSHA1(uuid.NameSpaceURL, []byte(source))
	uid := uuid.NewSHA1(namespace, []byte(kind.String()+":"+name))
	hex := strings.ReplaceAll(uid.String(), "-", "")

	sanitized := strings.ToLower(strings.ReplaceAll(name, " ", "_"))
	return fmt.Sprintf("%s__%s__%s", kind.String(), sanitized, hex)
}

// InferKind classifies a definition from its text: a parameter when it carries
// IsParameterQuery metadata, a function when it opens with a parameter list and
// contains "=>", otherwise a query.
func InferKind(code string) graph.Kind {
	if parameterMetaPattern.MatchString(code) {
		return graph.KindParameter
	}
	trimmed := strings.TrimSpace(code)
	if strings.HasPrefix(trimmed, "(") && strings.Contains(trimmed, "=>") {
		return graph.KindFunction
	}
	return graph.KindQuery
}
