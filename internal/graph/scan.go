package graph

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/pqgraph-dev/pqgraph/internal/mcode"
)

// Match is one resolved reference from a source definition to a target definition.
// All matches produced for the same name share Start, End and Text.
type Match struct {
	Source *Node
	Target *Node
	Name   string
	Start  int // byte offset into Source.MCode
	End    int
	Text   string
	Quoted bool
}

// Scan tests every catalog name against source's text and returns one Match per
// resolved target. Names bound in local are skipped, as is the source's own name.
func Scan(source *Node, local map[string]struct{}, catalog *Catalog) []Match {
	if source == nil || catalog == nil || source.MCode == "" {
		return nil
	}

	code := source.MCode
	var matches []Match
	for _, name := range catalog.Names() {
		if name == source.Name || mcode.IsLocal(local, name) {
			continue
		}
		patterns := catalog.patterns[name]
		if patterns == nil {
			continue
		}

		quoted := true
		loc := patterns.quoted.FindStringIndex(code)
		if loc == nil {
			quoted = false
			loc = findToken(patterns.bare, code)
		}
		if loc == nil {
			continue
		}

		for _, target := range catalog.Lookup(name) {
			if target.ID == source.ID {
				continue
			}
			matches = append(matches, Match{
				Source: source,
				Target: target,
				Name:   name,
				Start:  loc[0],
				End:    loc[1],
				Text:   code[loc[0]:loc[1]],
				Quoted: quoted,
			})
		}
	}
	return matches
}

// findToken returns the first match of re in text that stands alone as a token: a
// word character at either edge of the match must not touch another word character.
func findToken(re *regexp.Regexp, text string) []int {
	offset := 0
	for offset <= len(text) {
		loc := re.FindStringIndex(text[offset:])
		if loc == nil {
			return nil
		}
		start, end := offset+loc[0], offset+loc[1]
		if start < end && isTokenBounded(text, start, end) {
			return []int{start, end}
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		if size == 0 {
			return nil
		}
		offset = start + size
	}
	return nil
}

func isTokenBounded(text string, start, end int) bool {
	first, _ := utf8.DecodeRuneInString(text[start:end])
	if isWordRune(first) && start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(prev) {
			return false
		}
	}
	last, _ := utf8.DecodeLastRuneInString(text[start:end])
	if isWordRune(last) && end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(next) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
