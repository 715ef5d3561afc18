package nav

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pqgraph-dev/pqgraph/internal/fileutil"
	"github.com/pqgraph-dev/pqgraph/internal/output"
	"github.com/pqgraph-dev/pqgraph/internal/search"
)

func RunNode(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	fuzzy, err := OptionalBoolFlag(cmd, "fuzzy", false)
	if err != nil {
		return err
	}
	limit, err := OptionalIntFlag(cmd, "limit", 10)
	if err != nil {
		return err
	}

	dir, lookup, err := loadForCommand(cmd)
	if err != nil {
		return err
	}
	var searchIndex *search.Index
	if fuzzy {
		searchIndex, err = search.Load(dir)
		if err != nil {
			return err
		}
	}
	matches := ResolveWithOptions(lookup, searchIndex, args[0], ResolveOptions{Fuzzy: fuzzy, Limit: limit})
	if len(matches) == 0 {
		return fmt.Errorf("definition %q not found", args[0])
	}

	records := make([]NodeRecord, 0, len(matches))
	for _, match := range matches {
		records = append(records, NodeRecordFromNode(match))
	}

	if asJSON {
		return fileutil.FprintJSON(cmd.OutOrStdout(), map[string]any{
			"query":   args[0],
			"matches": records,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "definition matches for %q (%d)\n", args[0], len(records))
	for _, record := range records {
		fmt.Fprintf(out, "- %s [%s] %s\n", record.Name, record.Kind, record.ID)
		if record.Group != "" {
			fmt.Fprintf(out, "  group: %s\n", record.Group)
		}
	}
	return nil
}

func RunDeps(cmd *cobra.Command, args []string) error {
	return runNeighbours(cmd, args[0], "dependencies", CollectDependencies)
}

func RunDependents(cmd *cobra.Command, args []string) error {
	return runNeighbours(cmd, args[0], "dependents", CollectDependents)
}

func runNeighbours(cmd *cobra.Command, query, label string, collect func(*Lookup, *IndexNode) []EdgeRecord) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	_, lookup, err := loadForCommand(cmd)
	if err != nil {
		return err
	}
	node, err := ResolveSingleNode(lookup, query)
	if err != nil {
		return err
	}

	records := collect(lookup, node)
	if asJSON {
		return fileutil.FprintJSON(cmd.OutOrStdout(), map[string]any{
			"query": query,
			"node":  NodeRecordFromNode(node),
			label:   records,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s for %s (%d)\n", label, node.Name, len(records))
	if len(records) == 0 {
		fmt.Fprintf(out, "no %s found\n", label)
		return nil
	}
	for _, record := range records {
		printEdgeRecord(out, record)
	}
	return nil
}

func RunTrace(cmd *cobra.Command, args []string) error {
	depth, err := cmd.Flags().GetInt("depth")
	if err != nil {
		return fmt.Errorf("failed to read --depth flag: %w", err)
	}
	if depth < 1 {
		return fmt.Errorf("--depth must be >= 1")
	}
	reverse, err := OptionalBoolFlag(cmd, "reverse", false)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	_, lookup, err := loadForCommand(cmd)
	if err != nil {
		return err
	}
	startNode, err := ResolveSingleNode(lookup, args[0])
	if err != nil {
		return err
	}

	hops := Trace(lookup, startNode, depth, reverse)
	if asJSON {
		return fileutil.FprintJSON(cmd.OutOrStdout(), map[string]any{
			"query":   args[0],
			"start":   NodeRecordFromNode(startNode),
			"depth":   depth,
			"reverse": reverse,
			"hops":    hops,
		})
	}

	out := cmd.OutOrStdout()
	direction := "dependencies"
	if reverse {
		direction = "dependents"
	}
	fmt.Fprintf(out, "trace %s from %s depth=%d hops=%d\n", direction, startNode.Name, depth, len(hops))
	if len(hops) == 0 {
		fmt.Fprintln(out, "no hops found")
		return nil
	}
	for _, hop := range hops {
		fmt.Fprintf(out, "- d=%d %s -> %s", hop.Depth, hop.From.Name, hop.To.Name)
		printEdgeLabel(out, hop.Type, hop.Confidence)
		fmt.Fprintln(out)
	}
	return nil
}

func RunPath(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	_, lookup, err := loadForCommand(cmd)
	if err != nil {
		return err
	}
	fromNode, err := ResolveSingleNode(lookup, args[0])
	if err != nil {
		return err
	}
	toNode, err := ResolveSingleNode(lookup, args[1])
	if err != nil {
		return err
	}

	pathIDs := ShortestPath(lookup, fromNode.ID, toNode.ID)
	if len(pathIDs) == 0 {
		return fmt.Errorf("no dependency path from %s to %s", fromNode.Name, toNode.Name)
	}

	pathNodes := make([]NodeRecord, 0, len(pathIDs))
	edges := make([]map[string]string, 0, len(pathIDs)-1)
	for i, id := range pathIDs {
		node := lookup.ByID[id]
		if node == nil {
			continue
		}
		pathNodes = append(pathNodes, NodeRecordFromNode(node))
		if i == 0 {
			continue
		}
		prevID := pathIDs[i-1]
		edgeType, confidence := lookup.Edge(prevID, id)
		edges = append(edges, map[string]string{
			"from_id":    prevID,
			"to_id":      id,
			"type":       edgeType,
			"confidence": confidence,
		})
	}

	if asJSON {
		return fileutil.FprintJSON(cmd.OutOrStdout(), map[string]any{
			"from":   NodeRecordFromNode(fromNode),
			"to":     NodeRecordFromNode(toNode),
			"length": len(pathNodes) - 1,
			"path":   pathNodes,
			"edges":  edges,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "path %s -> %s length=%d\n", fromNode.Name, toNode.Name, len(pathNodes)-1)
	for i, node := range pathNodes {
		fmt.Fprintf(out, "%d. %s [%s]\n", i+1, node.Name, node.Kind)
	}
	return nil
}

func RunSteps(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	_, lookup, err := loadForCommand(cmd)
	if err != nil {
		return err
	}
	node, err := ResolveSingleNode(lookup, args[0])
	if err != nil {
		return err
	}

	if asJSON {
		steps := node.Steps
		if steps == nil {
			steps = []string{}
		}
		return fileutil.FprintJSON(cmd.OutOrStdout(), map[string]any{
			"node":  NodeRecordFromNode(node),
			"steps": steps,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "steps for %s (%d)\n", node.Name, len(node.Steps))
	if len(node.Steps) == 0 {
		fmt.Fprintln(out, "(no steps detected)")
		return nil
	}
	for i, step := range node.Steps {
		fmt.Fprintf(out, "%d. %s\n", i+1, step)
	}
	return nil
}

func RunFind(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	limit, err := OptionalIntFlag(cmd, "limit", 10)
	if err != nil {
		return err
	}

	dir, lookup, err := loadForCommand(cmd)
	if err != nil {
		return err
	}
	index, err := search.Load(dir)
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	results := search.Search(index, query, limit)
	type match struct {
		NodeRecord
		Score float64 `json:"score"`
	}
	matches := make([]match, 0, len(results))
	for _, result := range results {
		node := lookup.ByID[result.ID]
		if node == nil {
			continue
		}
		matches = append(matches, match{NodeRecord: NodeRecordFromNode(node), Score: result.Score})
	}

	if asJSON {
		return fileutil.FprintJSON(cmd.OutOrStdout(), map[string]any{
			"query":   query,
			"matches": matches,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "search results for %q (%d)\n", query, len(matches))
	for _, m := range matches {
		fmt.Fprintf(out, "- %s [%s] score=%.3f\n", m.Name, m.Kind, m.Score)
	}
	return nil
}

func RunTop(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	limit, err := OptionalIntFlag(cmd, "limit", 10)
	if err != nil {
		return err
	}

	_, lookup, err := loadForCommand(cmd)
	if err != nil {
		return err
	}

	top := TopNodes(lookup, limit)
	if asJSON {
		return fileutil.FprintJSON(cmd.OutOrStdout(), map[string]any{
			"catalog": lookup.Catalog,
			"nodes":   top,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "most depended-upon definitions in %s (%d)\n", lookup.Catalog, len(top))
	for i, node := range top {
		fmt.Fprintf(out, "%d. %s [%s] rank=%.4f\n", i+1, node.Name, node.Kind, node.PageRank)
	}
	return nil
}

func loadForCommand(cmd *cobra.Command) (string, *Lookup, error) {
	explicit, err := OptionalStringFlag(cmd, "dir", "")
	if err != nil {
		return "", nil, err
	}
	outRoot, err := OptionalStringFlag(cmd, "out", output.DefaultDir)
	if err != nil {
		return "", nil, err
	}
	dir, err := ResolveDir(explicit, outRoot)
	if err != nil {
		return "", nil, err
	}
	lookup, err := LoadLookup(dir)
	if err != nil {
		return "", nil, err
	}
	return dir, lookup, nil
}

func printEdgeRecord(out io.Writer, record EdgeRecord) {
	fmt.Fprintf(out, "- %s [%s]", record.Node.Name, record.Node.Kind)
	printEdgeLabel(out, record.Type, record.Confidence)
	fmt.Fprintln(out)
}

func printEdgeLabel(out io.Writer, edgeType, confidence string) {
	switch {
	case edgeType != "" && confidence != "":
		fmt.Fprintf(out, " (%s, %s)", edgeType, confidence)
	case confidence != "":
		fmt.Fprintf(out, " (%s)", confidence)
	}
}

func OptionalBoolFlag(cmd *cobra.Command, name string, defaultValue bool) (bool, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return defaultValue, nil
	}
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

func OptionalIntFlag(cmd *cobra.Command, name string, defaultValue int) (int, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return defaultValue, nil
	}
	value, err := cmd.Flags().GetInt(name)
	if err != nil {
		return 0, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

func OptionalStringFlag(cmd *cobra.Command, name string, defaultValue string) (string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return defaultValue, nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}
