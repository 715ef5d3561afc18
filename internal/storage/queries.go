package storage

import (
	"database/sql"
	"fmt"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
)

// Neighbour is a definition adjacent to another one, with the edge joining them.
type Neighbour struct {
	Node       graph.Node
	Type       graph.EdgeType
	Confidence graph.Confidence
}

// Reached is a definition found by a transitive walk, at its shortest depth.
type Reached struct {
	Node  graph.Node
	Depth int
}

// Stats summarizes the stored graph.
type Stats struct {
	Nodes  int
	Edges  int
	Steps  int
	ByKind map[string]int
}

const nodeColumns = `n.id, n.name, n.kind, n.grp, n.load_enabled, n.source, n.m_code`

// WriteGraph replaces the stored graph in one transaction.
func (db *DB) WriteGraph(nodes []graph.Node, edges []graph.Edge, steps map[string][]string) (err error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, stmt := range []string{"DELETE FROM steps", "DELETE FROM edges", "DELETE FROM nodes"} {
		if _, err = tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to clear graph: %w", err)
		}
	}

	nodeStmt, err := tx.Prepare(`INSERT OR IGNORE INTO nodes (id, name, kind, grp, load_enabled, source, m_code)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare node insert: %w", err)
	}
	defer nodeStmt.Close()

	for _, node := range nodes {
		if _, err = nodeStmt.Exec(node.ID, node.Name, node.Kind.String(), nullString(node.Group), nullBool(node.LoadEnabled), nullString(node.Source), node.MCode); err != nil {
			return fmt.Errorf("failed to insert node %s: %w", node.ID, err)
		}
	}

	edgeStmt, err := tx.Prepare(`INSERT INTO edges (from_id, to_id, type, confidence, match, line, col_start)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for _, edge := range edges {
		if _, err = edgeStmt.Exec(edge.From, edge.To, string(edge.Type), string(edge.Confidence), edge.Evidence.Match, edge.Evidence.Line, edge.Evidence.ColStart); err != nil {
			return fmt.Errorf("failed to insert edge %s -> %s: %w", edge.From, edge.To, err)
		}
	}

	stepStmt, err := tx.Prepare(`INSERT OR IGNORE INTO steps (node_id, position, name) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare step insert: %w", err)
	}
	defer stepStmt.Close()

	for _, node := range nodes {
		for i, name := range steps[node.ID] {
			if _, err = stepStmt.Exec(node.ID, i+1, name); err != nil {
				return fmt.Errorf("failed to insert step %s of %s: %w", name, node.ID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit graph: %w", err)
	}
	return nil
}

// Stats counts stored rows.
func (db *DB) Stats() (Stats, error) {
	stats := Stats{ByKind: make(map[string]int)}
	row := db.conn.QueryRow(`SELECT
		(SELECT COUNT(*) FROM nodes),
		(SELECT COUNT(*) FROM edges),
		(SELECT COUNT(*) FROM steps)`)
	if err := row.Scan(&stats.Nodes, &stats.Edges, &stats.Steps); err != nil {
		return stats, fmt.Errorf("failed to count graph rows: %w", err)
	}

	rows, err := db.conn.Query(`SELECT kind, COUNT(*) FROM nodes GROUP BY kind`)
	if err != nil {
		return stats, fmt.Errorf("failed to count kinds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return stats, err
		}
		stats.ByKind[kind] = count
	}
	return stats, rows.Err()
}

// NodesByName returns every definition with the given name.
func (db *DB) NodesByName(name string) ([]graph.Node, error) {
	rows, err := db.conn.Query(`SELECT `+nodeColumns+` FROM nodes n WHERE n.name = ? ORDER BY n.id`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []graph.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, rows.Err()
}

// Dependencies returns the definitions nodeID directly depends on.
func (db *DB) Dependencies(nodeID string) ([]Neighbour, error) {
	rows, err := db.conn.Query(
		`SELECT `+nodeColumns+`, e.type, e.confidence
		 FROM nodes n
		 JOIN edges e ON e.to_id = n.id
		 WHERE e.from_id = ?
		 ORDER BY n.name, n.id`,
		nodeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNeighbours(rows)
}

// Dependents returns the definitions that directly depend on nodeID.
func (db *DB) Dependents(nodeID string) ([]Neighbour, error) {
	rows, err := db.conn.Query(
		`SELECT `+nodeColumns+`, e.type, e.confidence
		 FROM nodes n
		 JOIN edges e ON e.from_id = n.id
		 WHERE e.to_id = ?
		 ORDER BY n.name, n.id`,
		nodeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNeighbours(rows)
}

// Upstream returns every definition that depends on nodeID, directly or transitively,
// up to maxDepth hops. A maxDepth of 0 or less means no limit.
func (db *DB) Upstream(nodeID string, maxDepth int) ([]Reached, error) {
	if maxDepth <= 0 {
		// No shortest walk is longer than the node count, and the bound stops cycles.
		if err := db.conn.QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&maxDepth); err != nil {
			return nil, err
		}
	}

	query := `
	WITH RECURSIVE upstream(id, depth) AS (
		SELECT e.from_id, 1
		FROM edges e
		WHERE e.to_id = ?
		UNION
		SELECT e.from_id, u.depth + 1
		FROM edges e
		JOIN upstream u ON e.to_id = u.id
		WHERE u.depth < ?
	)
	SELECT ` + nodeColumns + `, MIN(u.depth)
	FROM upstream u
	JOIN nodes n ON n.id = u.id
	WHERE n.id != ?
	GROUP BY n.id
	ORDER BY MIN(u.depth), n.name, n.id`

	rows, err := db.conn.Query(query, nodeID, maxDepth, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reached
	for rows.Next() {
		var reached Reached
		node, err := scanNode(rows, &reached.Depth)
		if err != nil {
			return nil, err
		}
		reached.Node = node
		out = append(out, reached)
	}
	return out, rows.Err()
}

// Steps returns the step names of a definition in declaration order.
func (db *DB) Steps(nodeID string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT name FROM steps WHERE node_id = ? ORDER BY position`, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func scanNeighbours(rows *sql.Rows) ([]Neighbour, error) {
	var out []Neighbour
	for rows.Next() {
		var edgeType, confidence string
		node, err := scanNode(rows, &edgeType, &confidence)
		if err != nil {
			return nil, err
		}
		out = append(out, Neighbour{
			Node:       node,
			Type:       graph.EdgeType(edgeType),
			Confidence: graph.Confidence(confidence),
		})
	}
	return out, rows.Err()
}

// scanNode reads nodeColumns followed by any extra destinations.
func scanNode(rows *sql.Rows, extra ...any) (graph.Node, error) {
	var node graph.Node
	var kind string
	var group, source sql.NullString
	var loadEnabled sql.NullBool

	dest := append([]any{&node.ID, &node.Name, &kind, &group, &loadEnabled, &source, &node.MCode}, extra...)
	if err := rows.Scan(dest...); err != nil {
		return node, err
	}

	parsed, err := graph.ParseKind(kind)
	if err != nil {
		return node, err
	}
	node.Kind = parsed
	node.Group = group.String
	node.Source = source.String
	if loadEnabled.Valid {
		value := loadEnabled.Bool
		node.LoadEnabled = &value
	}
	return node, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullBool(value *bool) sql.NullBool {
	if value == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *value, Valid: true}
}
