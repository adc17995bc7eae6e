// Package db stores extracted graphs in SQLite, one run per extraction.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	conn *sql.DB
	Path string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	label TEXT NOT NULL,
	subreddits TEXT NOT NULL,
	base INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	posts INTEGER NOT NULL,
	seen INTEGER NOT NULL,
	processed INTEGER NOT NULL,
	skipped_missing_post INTEGER NOT NULL,
	skipped_missing_parent INTEGER NOT NULL,
	deferred INTEGER NOT NULL DEFAULT 0,
	mismatched_vectors INTEGER NOT NULL DEFAULT 0,
	elapsed_ms INTEGER NOT NULL,
	idf INTEGER NOT NULL,
	clean_deleted INTEGER NOT NULL,
	clean_bots INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS nodes (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	type TEXT NOT NULL,
	id TEXT NOT NULL,
	score INTEGER NOT NULL DEFAULT 0,
	time REAL NOT NULL DEFAULT 0,
	post_time_offset REAL NOT NULL DEFAULT 0,
	length INTEGER NOT NULL DEFAULT 0,
	subreddit TEXT NOT NULL DEFAULT '',
	num_comments INTEGER,
	embedding BLOB,
	PRIMARY KEY (run_id, type, id)
);
CREATE INDEX IF NOT EXISTS idx_nodes_run_seq ON nodes(run_id, seq);
CREATE TABLE IF NOT EXISTS edges (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	source_type TEXT NOT NULL,
	source_id TEXT NOT NULL,
	target_type TEXT NOT NULL,
	target_id TEXT NOT NULL,
	type TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// OpenDB opens a SQLite database with WAL mode and foreign keys enabled,
// creating the schema if needed.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Pragmas are per connection.
	conn.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{conn: conn, Path: path}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries
func (d *DB) Conn() *sql.DB {
	return d.conn
}
