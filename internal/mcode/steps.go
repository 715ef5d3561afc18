package mcode

import (
	"regexp"
	"strings"
)

// stepPattern matches "identifier =" at the start of a trimmed line. Plain identifiers
// may contain dots (Table.Buffer style); anything else has to be written #"quoted".
// The trailing class keeps "=>" and "==" from reading as an assignment. A quoted name
// holding "=" is not captured.
var stepPattern = regexp.MustCompile(`^(#"[^"=]*"|[\p{L}_][\p{L}\p{N}_.]*)\s*=(?:[^=>]|$)`)

// Steps lists the names bound in the let block in source order. Duplicates are kept.
// An assignment whose name is not on the same line as "=" is not seen.
func Steps(code string) []string {
	block, ok := LetBlock(code)
	if !ok {
		return nil
	}

	var steps []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") {
			continue
		}
		match := stepPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		steps = append(steps, Dequote(match[1]))
	}
	return steps
}
