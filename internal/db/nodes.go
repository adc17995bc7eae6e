package db

import (
	"database/sql"
	"fmt"

	"github.com/williamleif/redditnetwork/internal/graph"
)

// scanNode scans a row into a Node. The row must have all 9 columns in standard order.
func scanNode(scanner interface{ Scan(dest ...any) error }) (graph.Node, error) {
	var n graph.Node
	var typ string
	var numComments sql.NullInt64
	var embedding []byte
	err := scanner.Scan(
		&typ, &n.ID, &n.Score, &n.Time, &n.PostTimeOffset,
		&n.Length, &n.Subreddit, &numComments, &embedding,
	)
	if err != nil {
		return n, err
	}
	n.Type = graph.NodeType(typ)
	if numComments.Valid {
		v := int(numComments.Int64)
		n.NumComments = &v
	}
	n.WordVecs = bytesToEmbedding(embedding)
	return n, nil
}

func insertNodes(tx *sql.Tx, runID string, g *graph.Graph) error {
	stmt, err := tx.Prepare(`
		INSERT INTO nodes (run_id, seq, type, id, score, time, post_time_offset,
		                   length, subreddit, num_comments, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing node insert: %w", err)
	}
	defer stmt.Close()

	seq := 0
	for n := range g.Nodes() {
		var numComments any
		if n.NumComments != nil {
			numComments = *n.NumComments
		}
		if _, err := stmt.Exec(runID, seq, string(n.Type), n.ID, n.Score, n.Time, n.PostTimeOffset,
			n.Length, n.Subreddit, numComments, embeddingToBytes(n.WordVecs)); err != nil {
			return fmt.Errorf("inserting node %s: %w", n.Ref(), err)
		}
		seq++
	}
	return nil
}

// loadNodes adds the nodes of a run to b in their original order.
func (d *DB) loadNodes(runID string, b *graph.Builder) error {
	rows, err := d.conn.Query(`
		SELECT type, id, score, time, post_time_offset, length, subreddit,
		       num_comments, embedding
		FROM nodes WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return err
		}
		b.AddNode(n)
	}
	return rows.Err()
}

// GetNode returns a single node of a run, or nil if not found
func (d *DB) GetNode(runID string, ref graph.NodeRef) (*graph.Node, error) {
	row := d.conn.QueryRow(`
		SELECT type, id, score, time, post_time_offset, length, subreddit,
		       num_comments, embedding
		FROM nodes WHERE run_id = ? AND type = ? AND id = ?
	`, runID, string(ref.Type), ref.ID)

	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}
