package search

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// DocRow represents a row in the docs table. The body is passed
// separately to UpsertDoc and never travels in listings.
type DocRow struct {
	BaseName    string
	DisplayName string
	Checksum    string
	Topic       string
	FetchedAt   time.Time
}

// Hit represents one search match.
type Hit struct {
	BaseName    string `json:"base_name"`
	DisplayName string `json:"display_name"`
	Snippet     string `json:"snippet"`
}

// Checksum returns the hex SHA-256 of data; it is the change detector
// used by Sync.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// UpsertDoc inserts or replaces a document row and its FTS entry
// within a transaction.
func (db *DB) UpsertDoc(row DocRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO docs (base_name, display_name, checksum, topic, body, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(base_name) DO UPDATE SET
			display_name = excluded.display_name,
			checksum     = excluded.checksum,
			topic        = excluded.topic,
			body         = excluded.body,
			fetched_at   = excluded.fetched_at
	`, row.BaseName, row.DisplayName, row.Checksum, row.Topic, body, row.FetchedAt)
	if err != nil {
		return fmt.Errorf("search: upsert doc: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, row.BaseName, row.DisplayName, body, row.Topic); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteDoc removes a document row and its FTS entry.
func (db *DB) DeleteDoc(baseName string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("search: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, baseName)
	_, _ = tx.Exec(`DELETE FROM docs WHERE base_name = ?`, baseName)

	return tx.Commit()
}

// AllChecksums returns the checksum of every cached document, keyed by
// base name.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT base_name, checksum FROM docs`)
	if err != nil {
		return nil, fmt.Errorf("search: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var base, cs string
		if err := rows.Scan(&base, &cs); err != nil {
			return nil, err
		}
		out[base] = cs
	}
	return out, rows.Err()
}
