package nav

const (
	IndexFile    = "nav-index.json"
	IndexVersion = "nav-index-v2"
)

type Index struct {
	Version string      `json:"version"`
	Catalog string      `json:"catalog"`
	Nodes   []IndexNode `json:"nodes"`
}

type IndexNode struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Kind          string           `json:"kind"`
	Source        string           `json:"source,omitempty"`
	Group         string           `json:"group,omitempty"`
	LoadEnabled   *bool            `json:"load_enabled,omitempty"`
	Steps         []string         `json:"steps,omitempty"`
	OutEdges      []string         `json:"out_edges,omitempty"`
	InEdges       []string         `json:"in_edges,omitempty"`
	OutConfidence []EdgeConfidence `json:"out_confidence,omitempty"`
	PageRank      float64          `json:"page_rank"`
}

type EdgeConfidence struct {
	TargetID   string `json:"target_id"`
	Type       string `json:"type,omitempty"`
	Confidence string `json:"confidence,omitempty"`
}

type Lookup struct {
	Catalog string
	ByID    map[string]*IndexNode
	ByName  map[string][]string
	byFold  map[string][]string // lower-case name -> ids
}

type ResolveOptions struct {
	Fuzzy bool
	Limit int
}

type NodeRecord struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	Source      string  `json:"source,omitempty"`
	Group       string  `json:"group,omitempty"`
	LoadEnabled *bool   `json:"load_enabled,omitempty"`
	PageRank    float64 `json:"page_rank,omitempty"`
}

type EdgeRecord struct {
	Node       NodeRecord `json:"node"`
	Type       string     `json:"type,omitempty"`
	Confidence string     `json:"confidence,omitempty"`
}

type TraceHop struct {
	Depth      int        `json:"depth"`
	From       NodeRecord `json:"from"`
	To         NodeRecord `json:"to"`
	Type       string     `json:"type,omitempty"`
	Confidence string     `json:"confidence,omitempty"`
}
