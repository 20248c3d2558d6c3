//go:build sqlite_fts5

package search

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS docs_fts USING fts5(
			base_name UNINDEXED,
			display_name,
			body,
			topic,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, baseName, displayName, body, topic string) error {
	_, _ = tx.Exec(`DELETE FROM docs_fts WHERE base_name = ?`, baseName)
	_, err := tx.Exec(`
		INSERT INTO docs_fts (base_name, display_name, body, topic)
		VALUES (?, ?, ?, ?)
	`, baseName, displayName, body, topic)
	if err != nil {
		return fmt.Errorf("search: fts upsert: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, baseName string) {
	_, _ = tx.Exec(`DELETE FROM docs_fts WHERE base_name = ?`, baseName)
}

// Search performs an FTS5 MATCH query ranked by relevance.
func (db *DB) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT base_name,
		       display_name,
		       snippet(docs_fts, 2, '<b>', '</b>', '...', 64)
		FROM docs_fts
		WHERE docs_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}
	defer rows.Close()

	var out []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.BaseName, &h.DisplayName, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
