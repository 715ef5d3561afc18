package graph

import (
	"regexp"
	"strings"
)

// Catalog indexes a model's definitions by display name. Names may repeat.
// A Catalog is never modified after NewCatalog returns, so it can be shared between
// goroutines.
type Catalog struct {
	nodes    []*Node
	names    []string // first-seen order
	byName   map[string][]*Node
	byID     map[string]*Node
	patterns map[string]*namePatterns
}

type namePatterns struct {
	quoted *regexp.Regexp // #"NAME"
	bare   *regexp.Regexp // NAME, checked for token boundaries separately
	call   *regexp.Regexp // NAME (
}

// NewCatalog copies nodes into a read-only catalog.
func NewCatalog(nodes []Node) *Catalog {
	c := &Catalog{
		nodes:    make([]*Node, 0, len(nodes)),
		byName:   make(map[string][]*Node),
		byID:     make(map[string]*Node, len(nodes)),
		patterns: make(map[string]*namePatterns),
	}

	for i := range nodes {
		node := nodes[i]
		ptr := &node
		c.nodes = append(c.nodes, ptr)
		if _, seen := c.byName[node.Name]; !seen {
			c.names = append(c.names, node.Name)
		}
		c.byName[node.Name] = append(c.byName[node.Name], ptr)
		if _, exists := c.byID[node.ID]; !exists {
			c.byID[node.ID] = ptr
		}
	}

	for _, name := range c.names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		c.patterns[name] = compileNamePatterns(name)
	}

	return c
}

func compileNamePatterns(name string) *namePatterns {
	escaped := regexp.QuoteMeta(name)
	return &namePatterns{
		quoted: regexp.MustCompile(`(?i)#"\s*` + escaped + `\s*"`),
		bare:   regexp.MustCompile(`(?i)` + escaped),
		call:   regexp.MustCompile(`(?i)` + escaped + `\s*\(`),
	}
}

// Nodes returns the definitions in input order.
func (c *Catalog) Nodes() []*Node {
	return c.nodes
}

// Names returns every distinct display name in first-seen order.
func (c *Catalog) Names() []string {
	return c.names
}

// Lookup returns every definition sharing name, in input order.
func (c *Catalog) Lookup(name string) []*Node {
	return c.byName[name]
}

// NodeByID returns the first definition with the given id.
func (c *Catalog) NodeByID(id string) (*Node, bool) {
	node, ok := c.byID[id]
	return node, ok
}

// IsUnique reports whether name resolves to exactly one definition.
func (c *Catalog) IsUnique(name string) bool {
	return len(c.byName[name]) == 1
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.nodes)
}
