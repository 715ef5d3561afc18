package output

import (
	"fmt"
	"strings"
)

const queriesLegend = `<!--
Format notes:
- # : name of the analyzed source (single H1).
- ## : definition name.
- ### Metadata "Name": basic information about the definition.
  - Kind: query/function/parameter.
  - Load: whether the definition is loaded into the model (true/false/null).
  - Group: optional group (when available).
- ### Steps "Name": step order from the M code (top-level bindings of let ... in).
- ### Dependencies (detected) "Name": detected dependencies on other definitions.
- ### M code "Name": the original M (Power Query) code.
-->
`

// RenderQueries renders queries.md: one H1 for the catalog, then one section per
// definition in catalog order.
func RenderQueries(doc *Document) []byte {
	var b strings.Builder
	names := doc.names()
	edges := doc.edgesBySource()

	fmt.Fprintf(&b, "# %s\n\n", doc.Name)
	b.WriteString(queriesLegend)
	b.WriteString("\n")

	for _, node := range doc.Nodes {
		fmt.Fprintf(&b, "## %s\n\n", node.Name)

		fmt.Fprintf(&b, "### Metadata \"%s\"\n\n", node.Name)
		fmt.Fprintf(&b, "- Kind: %s\n", node.Kind)
		load := "null"
		if node.LoadEnabled != nil {
			load = fmt.Sprintf("%t", *node.LoadEnabled)
		}
		fmt.Fprintf(&b, "- Load: %s\n", load)
		if node.Group != "" {
			fmt.Fprintf(&b, "- Group: %s\n", node.Group)
		}
		b.WriteString("\n")

		fmt.Fprintf(&b, "### Steps \"%s\"\n\n", node.Name)
		steps := doc.Steps[node.ID]
		if len(steps) == 0 {
			b.WriteString("- (no steps detected)\n")
		}
		for i, step := range steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
		b.WriteString("\n")

		fmt.Fprintf(&b, "### Dependencies (detected) \"%s\"\n\n", node.Name)
		deps := edges[node.ID]
		if len(deps) == 0 {
			b.WriteString("- None detected\n")
		}
		for _, dep := range deps {
			target, ok := names[dep.To]
			if !ok {
				target = dep.To
			}
			fmt.Fprintf(&b, "- %s (type: %s, confidence: %s)\n", target, dep.Type, dep.Confidence)
		}
		b.WriteString("\n")

		fmt.Fprintf(&b, "### M code \"%s\"\n\n", node.Name)
		b.WriteString("```powerquery\n")
		b.WriteString(node.MCode)
		b.WriteString("\n```\n\n")
	}
	return []byte(b.String())
}
