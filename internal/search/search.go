// Package search provides the SQLite-backed local search cache over
// downloaded documentation, with optional FTS5 full-text search.
//
// The cache is derivative: the store directory and INDEX.md stay the
// source of truth, and the cache can be rebuilt from them at any time
// with Sync.
package search

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS docs (
	base_name    TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	checksum     TEXT NOT NULL DEFAULT '',
	topic        TEXT NOT NULL DEFAULT '',
	body         TEXT NOT NULL DEFAULT '',
	fetched_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Searcher defines the local search cache operations. Consumers should
// depend on this interface rather than the concrete *DB type.
type Searcher interface {
	UpsertDoc(row DocRow, body string) error
	DeleteDoc(baseName string) error
	AllChecksums() (map[string]string, error)
	Search(query string, limit int) ([]Hit, error)
	Close() error
}

// Verify *DB satisfies Searcher at compile time.
var _ Searcher = (*DB)(nil)

// DB wraps a sql.DB with search-cache operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("search: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: apply schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("search: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
