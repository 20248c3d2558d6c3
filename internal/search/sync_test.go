package search

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/docindex"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tempStore(t *testing.T) *store.Dir {
	t.Helper()
	st, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return st
}

func TestSyncIndexesAndRemoves(t *testing.T) {
	db := testDB(t)
	st := tempStore(t)
	logger := discardLogger()

	if _, _, err := st.WriteDoc("alpha", ".md", []byte("alpha body with sphinx")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := st.WriteDoc("beta", ".md", []byte("beta body")); err != nil {
		t.Fatal(err)
	}

	if err := Sync(db, st, nil, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	sums, err := db.AllChecksums()
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 {
		t.Fatalf("cached docs = %d, want 2", len(sums))
	}

	hits, err := db.Search("sphinx", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].BaseName != "alpha" {
		t.Errorf("hits = %+v, want alpha", hits)
	}
	// Without index rows the display name comes from the file name.
	if hits[0].DisplayName != "/alpha" {
		t.Errorf("DisplayName = %q, want /alpha", hits[0].DisplayName)
	}

	// Removing a file drops its cache row on the next sync.
	if err := os.Remove(filepath.Join(st.Root(), "beta.md")); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, st, nil, logger); err != nil {
		t.Fatal(err)
	}
	sums, err = db.AllChecksums()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := sums["beta"]; ok {
		t.Error("stale row survived sync")
	}
}

func TestSyncAnnotatesFromIndex(t *testing.T) {
	db := testDB(t)
	st := tempStore(t)
	logger := discardLogger()

	if _, _, err := st.WriteDoc("gradio_app_gradio", ".md", []byte("blocks and interfaces")); err != nil {
		t.Fatal(err)
	}
	idx := docindex.NewManager(st.IndexPath(), logger)
	err := idx.Upsert(models.IndexEntry{
		BaseName:    "gradio_app_gradio",
		DisplayName: "/gradio-app/gradio",
		FilePath:    "gradio_app_gradio.md",
		SizeBytes:   21,
		LastUpdated: time.Date(2026, 8, 25, 12, 0, 0, 0, time.Local),
		Topic:       "interfaces",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := Sync(db, st, idx, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	hits, err := db.Search("blocks", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %+v, want one", hits)
	}
	if hits[0].DisplayName != "/gradio-app/gradio" {
		t.Errorf("DisplayName = %q, want the indexed name", hits[0].DisplayName)
	}
}

func TestSyncSkipsUnchanged(t *testing.T) {
	db := testDB(t)
	st := tempStore(t)
	logger := discardLogger()

	if _, _, err := st.WriteDoc("alpha", ".md", []byte("body")); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, st, nil, logger); err != nil {
		t.Fatal(err)
	}

	var before time.Time
	if err := db.conn.QueryRow(`SELECT fetched_at FROM docs WHERE base_name = 'alpha'`).Scan(&before); err != nil {
		t.Fatal(err)
	}

	// Touch the mtime without changing content; the checksum matches so
	// the row must stay as it is.
	later := time.Now().Add(2 * time.Hour)
	if err := os.Chtimes(filepath.Join(st.Root(), "alpha.md"), later, later); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, st, nil, logger); err != nil {
		t.Fatal(err)
	}

	var after time.Time
	if err := db.conn.QueryRow(`SELECT fetched_at FROM docs WHERE base_name = 'alpha'`).Scan(&after); err != nil {
		t.Fatal(err)
	}
	if !after.Equal(before) {
		t.Errorf("row rewritten for unchanged content: %v -> %v", before, after)
	}
}
