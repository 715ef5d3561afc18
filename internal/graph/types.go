package graph

import (
	"fmt"
	"strings"
)

// Kind is the closed set of definition kinds found in a model.
type Kind int

const (
	KindQuery Kind = iota
	KindFunction
	KindParameter
)

func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindFunction:
		return "function"
	case KindParameter:
		return "parameter"
	default:
		return "unknown"
	}
}

// ParseKind accepts the lower-case kind names used in catalogs and reports.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "query":
		return KindQuery, nil
	case "function":
		return KindFunction, nil
	case "parameter":
		return KindParameter, nil
	default:
		return KindQuery, fmt.Errorf("unsupported kind %q (supported: query, function, parameter)", value)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(data []byte) error {
	parsed, err := ParseKind(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// EdgeType describes how a definition uses its target.
type EdgeType string

const (
	EdgeCalls         EdgeType = "calls"
	EdgeUsesParameter EdgeType = "uses_parameter"
	EdgeReferences    EdgeType = "references"
)

// Confidence is the heuristic certainty attached to an edge.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Node is one named definition. Group, LoadEnabled and Source are carried through to
// reports; detection only reads ID, Name, Kind and MCode.
type Node struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	MCode       string `json:"m_code"`
	Group       string `json:"group,omitempty"`
	LoadEnabled *bool  `json:"load_enabled,omitempty"`
	Source      string `json:"source,omitempty"`
}

// Evidence locates the text that produced an edge inside the source definition.
type Evidence struct {
	Match    string `json:"match"`
	Line     int    `json:"line"`      // 1-based
	ColStart int    `json:"col_start"` // 0-based, in characters
}

// Edge is a detected dependency from one definition to another.
type Edge struct {
	From       string     `json:"from"`
	To         string     `json:"to"`
	Type       EdgeType   `json:"type"`
	Confidence Confidence `json:"confidence"`
	Evidence   Evidence   `json:"evidence"`
}
