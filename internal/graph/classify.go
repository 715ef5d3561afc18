package graph

import (
	"strings"
	"unicode/utf8"
)

// Classify turns a Match into an Edge.
//
// Type: a call anywhere in the source (name followed by "(") wins, then a parameter
// target, then a plain reference. Confidence: a quoted match is high, a bare match on a
// unique name is medium, a bare match on a shared name is low.
func Classify(m Match, catalog *Catalog) Edge {
	edge := Edge{
		From:       m.Source.ID,
		To:         m.Target.ID,
		Type:       classifyType(m, catalog),
		Confidence: classifyConfidence(m, catalog),
		Evidence:   locate(m.Source.MCode, m.Start, m.Text),
	}
	return edge
}

func classifyType(m Match, catalog *Catalog) EdgeType {
	if isCalled(m.Source.MCode, catalog.patterns[m.Name]) {
		return EdgeCalls
	}

	switch m.Target.Kind {
	case KindParameter:
		return EdgeUsesParameter
	case KindQuery, KindFunction:
		return EdgeReferences
	default:
		return EdgeReferences
	}
}

func classifyConfidence(m Match, catalog *Catalog) Confidence {
	if m.Quoted {
		return ConfidenceHigh
	}
	if catalog.IsUnique(m.Name) {
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// isCalled needs the name itself followed by "(". In #"Name"( the name is followed by
// the closing quote, so the quoted form never counts as a call.
func isCalled(code string, patterns *namePatterns) bool {
	if patterns == nil {
		return false
	}
	return findToken(patterns.call, code) != nil
}

// locate converts a byte offset into a 1-based line and a 0-based character column.
func locate(code string, start int, match string) Evidence {
	if start < 0 {
		start = 0
	}
	if start > len(code) {
		start = len(code)
	}
	prefix := code[:start]
	lineStart := strings.LastIndex(prefix, "\n") + 1
	return Evidence{
		Match:    match,
		Line:     strings.Count(prefix, "\n") + 1,
		ColStart: utf8.RuneCountInString(code[lineStart:start]),
	}
}
