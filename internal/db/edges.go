package db

import (
	"database/sql"
	"fmt"

	"github.com/williamleif/redditnetwork/internal/graph"
)

// scanEdge scans a row into an Edge. The row must have all 5 columns in standard order.
func scanEdge(scanner interface{ Scan(dest ...any) error }) (graph.Edge, error) {
	var e graph.Edge
	var srcType, dstType, typ string
	err := scanner.Scan(&srcType, &e.From.ID, &dstType, &e.To.ID, &typ)
	e.From.Type = graph.NodeType(srcType)
	e.To.Type = graph.NodeType(dstType)
	e.Type = graph.EdgeType(typ)
	return e, err
}

func insertEdges(tx *sql.Tx, runID string, g *graph.Graph) error {
	stmt, err := tx.Prepare(`
		INSERT INTO edges (run_id, seq, source_type, source_id, target_type, target_id, type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing edge insert: %w", err)
	}
	defer stmt.Close()

	seq := 0
	for e := range g.Edges() {
		if _, err := stmt.Exec(runID, seq, string(e.From.Type), e.From.ID,
			string(e.To.Type), e.To.ID, string(e.Type)); err != nil {
			return fmt.Errorf("inserting edge %s -> %s: %w", e.From, e.To, err)
		}
		seq++
	}
	return nil
}

// loadEdges adds the edges of a run to b in their original order.
func (d *DB) loadEdges(runID string, b *graph.Builder) error {
	rows, err := d.conn.Query(`
		SELECT source_type, source_id, target_type, target_id, type
		FROM edges WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return err
		}
		if err := b.AddEdge(e.From, e.To, e.Type); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CountEdges returns the edge count of a run per edge type.
func (d *DB) CountEdges(runID string) (map[graph.EdgeType]int, error) {
	rows, err := d.conn.Query("SELECT type, COUNT(*) FROM edges WHERE run_id = ? GROUP BY type", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[graph.EdgeType]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		counts[graph.EdgeType(typ)] = n
	}
	return counts, rows.Err()
}
