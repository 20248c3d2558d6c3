// Package testutil provides shared test helpers for setting up documentation stores and search databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/ansuz/internal/search"
	"github.com/starford/ansuz/internal/store"
)

// TestDB creates a temporary search cache database that is automatically cleaned up.
func TestDB(t *testing.T) *search.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := search.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary documentation directory with a ready store.
func TestStore(t *testing.T) (string, *store.Dir) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, st
}
