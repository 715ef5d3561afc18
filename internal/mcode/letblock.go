// Package mcode holds the lexical helpers that look inside a single M definition:
// locating its let block, listing local bindings, and ordering its steps.
package mcode

import (
	"regexp"
	"strings"
)

// letBlockPattern finds the first let ... in span. Non-greedy, so nested lets end the
// span at the first "in" that follows whitespace. "let" is not word-bounded, so a
// name ending in "let" followed by whitespace starts a span too.
var letBlockPattern = regexp.MustCompile(`(?is)let\s+(.*?)\s+in\s+`)

// LetBlock returns the text between the first "let" and its matching "in".
func LetBlock(code string) (string, bool) {
	match := letBlockPattern.FindStringSubmatch(code)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// Dequote strips the #"..." quoted-identifier wrapper from name when present.
func Dequote(name string) string {
	if len(name) >= 3 && strings.HasPrefix(name, `#"`) && strings.HasSuffix(name, `"`) {
		return name[2 : len(name)-1]
	}
	return name
}

// Quote renders name in quoted-identifier form.
func Quote(name string) string {
	return `#"` + name + `"`
}
