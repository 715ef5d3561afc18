package mcode

import (
	"regexp"
	"strings"
)

var (
	sectionHeaderPattern = regexp.MustCompile(`^section\s+(#"(?:[^"]|"")*"|[\p{L}_][\p{L}\p{N}_.]*)\s*;`)
	memberPattern        = regexp.MustCompile(`(?s)^(shared\s+)?(#"(?:[^"]|"")*"|[\p{L}_][\p{L}\p{N}_.]*)\s*=\s*(.*)$`)
)

// Member is one named expression of a section document.
type Member struct {
	Name       string
	Expression string
	Shared     bool
}

// Section is a parsed "section Name; member; member; ..." document.
type Section struct {
	Name    string
	Members []Member
}

// ParseSection splits a section document into its members in declaration order.
// It returns false when text does not open with a section header.
func ParseSection(text string) (*Section, bool) {
	text = strings.TrimPrefix(text, "\ufeff")
	body := skipTrivia(text)
	header := sectionHeaderPattern.FindStringSubmatchIndex(body)
	if header == nil {
		return nil, false
	}

	section := &Section{Name: Unescape(body[header[2]:header[3]])}
	for _, chunk := range splitMembers(body[header[1]:]) {
		chunk = skipAttributes(skipTrivia(chunk))
		match := memberPattern.FindStringSubmatch(chunk)
		if match == nil {
			continue
		}
		section.Members = append(section.Members, Member{
			Name:       Unescape(match[2]),
			Expression: strings.TrimSpace(match[3]),
			Shared:     match[1] != "",
		})
	}
	return section, true
}

// Unescape dequotes a quoted identifier and collapses its doubled quotes.
func Unescape(name string) string {
	if !strings.HasPrefix(name, `#"`) {
		return name
	}
	return strings.ReplaceAll(Dequote(name), `""`, `"`)
}

// splitMembers cuts body at every semicolon outside strings, quoted identifiers and
// comments.
func splitMembers(body string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(body); {
		switch {
		case strings.HasPrefix(body[i:], "//"):
			i = skipLineComment(body, i)
		case strings.HasPrefix(body[i:], "/*"):
			i = skipBlockComment(body, i)
		case body[i] == '"':
			i = skipString(body, i+1)
		case body[i] == ';':
			parts = append(parts, body[start:i])
			start = i + 1
			i++
		default:
			i++
		}
	}
	if strings.TrimSpace(body[start:]) != "" {
		parts = append(parts, body[start:])
	}
	return parts
}

// skipTrivia drops leading whitespace and comments.
func skipTrivia(text string) string {
	for {
		text = strings.TrimLeft(text, " \t\r\n")
		switch {
		case strings.HasPrefix(text, "//"):
			text = text[skipLineComment(text, 0):]
		case strings.HasPrefix(text, "/*"):
			text = text[skipBlockComment(text, 0):]
		default:
			return text
		}
	}
}

// skipAttributes drops a leading [ ... ] member attribute record.
func skipAttributes(text string) string {
	if !strings.HasPrefix(text, "[") {
		return text
	}
	depth := 0
	for i := 0; i < len(text); {
		switch text[i] {
		case '"':
			i = skipString(text, i+1)
			continue
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return skipTrivia(text[i+1:])
			}
		}
		i++
	}
	return text
}

func skipLineComment(text string, i int) int {
	if end := strings.IndexByte(text[i:], '\n'); end >= 0 {
		return i + end + 1
	}
	return len(text)
}

func skipBlockComment(text string, i int) int {
	if end := strings.Index(text[i+2:], "*/"); end >= 0 {
		return i + 2 + end + 2
	}
	return len(text)
}

// skipString returns the offset just past the closing quote of a string opened before i.
func skipString(text string, i int) int {
	for i < len(text) {
		if text[i] == '"' {
			if i+1 < len(text) && text[i+1] == '"' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(text)
}
