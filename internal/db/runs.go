package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/williamleif/redditnetwork/internal/graph"
	"github.com/williamleif/redditnetwork/internal/network"
)

// SaveRun stores one extraction and its graph in a single transaction and
// returns the new run id.
func (d *DB) SaveRun(res *network.Result, opts network.Options) (string, error) {
	if res.Graph == nil {
		return "", errors.New("saving run: result has no graph")
	}
	id := uuid.NewString()

	tx, err := d.conn.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, label, subreddits, base, created_at, posts, seen, processed,
		                  skipped_missing_post, skipped_missing_parent, deferred, mismatched_vectors,
		                  elapsed_ms, idf, clean_deleted, clean_bots)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, res.Label, strings.Join(res.Subreddits, ","), res.Base.Unix(), time.Now().UnixMilli(),
		res.Posts, res.Stats.Seen, res.Stats.Processed, res.Stats.SkippedMissingPost,
		res.Stats.SkippedMissingParent, res.Stats.Deferred, res.Stats.MismatchedVectors, res.Elapsed.Milliseconds(),
		opts.IDF, opts.CleanDeleted, opts.CleanBots)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	if err := insertNodes(tx, id, res.Graph); err != nil {
		return "", err
	}
	if err := insertEdges(tx, id, res.Graph); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

const runColumns = `id, label, subreddits, base, created_at, posts, seen, processed,
	skipped_missing_post, skipped_missing_parent, deferred, mismatched_vectors, elapsed_ms,
	idf, clean_deleted, clean_bots`

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var r Run
	var subs string
	err := scanner.Scan(
		&r.ID, &r.Label, &subs, &r.Base, &r.CreatedAt, &r.Posts,
		&r.Stats.Seen, &r.Stats.Processed, &r.Stats.SkippedMissingPost,
		&r.Stats.SkippedMissingParent, &r.Stats.Deferred, &r.Stats.MismatchedVectors, &r.ElapsedMs,
		&r.IDF, &r.CleanDel, &r.CleanBots,
	)
	if subs != "" {
		r.Subreddits = strings.Split(subs, ",")
	}
	return r, err
}

// ListRuns returns all runs, newest first.
func (d *DB) ListRuns() ([]Run, error) {
	rows, err := d.conn.Query("SELECT " + runColumns + " FROM runs ORDER BY created_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns the run with the given id or unique id prefix.
func (d *DB) GetRun(idOrPrefix string) (*Run, error) {
	rows, err := d.conn.Query("SELECT "+runColumns+" FROM runs WHERE substr(id, 1, length(?1)) = ?1 ORDER BY id LIMIT 2",
		idOrPrefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if r.ID == idOrPrefix {
			return &r, nil
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousRun, idOrPrefix)
	}
}

// LoadGraph rebuilds the graph of a run.
func (d *DB) LoadGraph(runID string) (*graph.Graph, error) {
	b := graph.NewBuilder()
	if err := d.loadNodes(runID, b); err != nil {
		return nil, fmt.Errorf("loading nodes of run %s: %w", runID, err)
	}
	if err := d.loadEdges(runID, b); err != nil {
		return nil, fmt.Errorf("loading edges of run %s: %w", runID, err)
	}
	return b.Build(), nil
}

// DeleteRun removes a run and, by cascade, its graph.
func (d *DB) DeleteRun(runID string) error {
	res, err := d.conn.Exec("DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
