package catalog

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
)

func tempStore(t *testing.T) *store.Dir {
	t.Helper()
	d, err := store.New(t.TempDir())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return d
}

func TestListAnnotatesFromIndex(t *testing.T) {
	st := tempStore(t)
	if _, _, err := st.WriteDoc("gradio_app_gradio", ".md", []byte("docs")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := st.WriteDoc("orphan_lib", ".md", []byte("docs")); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(st.RepoDir("gradio_app_gradio"), 0o755); err != nil {
		t.Fatal(err)
	}

	fetched := time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local)
	entries := []models.IndexEntry{{
		BaseName:    "gradio_app_gradio",
		DisplayName: "/gradio-app/gradio",
		FilePath:    "gradio_app_gradio.md",
		SizeBytes:   4,
		LastUpdated: fetched,
		RepoStatus:  models.RepoSynced,
		Topic:       "interfaces",
		SearchQuery: "gradio",
	}}

	items, err := List(st, entries)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}

	indexed := items[0]
	if indexed.LibraryID != "/gradio-app/gradio" {
		t.Errorf("LibraryID = %q, want the indexed display name", indexed.LibraryID)
	}
	if !indexed.HasRepo || indexed.RepoStatus != models.RepoSynced {
		t.Errorf("repo fields = %v/%v, want true/synced", indexed.HasRepo, indexed.RepoStatus)
	}
	if indexed.Topic != "interfaces" || !indexed.LastFetched.Equal(fetched) {
		t.Errorf("annotation missing: %+v", indexed)
	}

	orphan := items[1]
	if orphan.LibraryID != "/orphan/lib" {
		t.Errorf("orphan LibraryID = %q, want reconstruction from file name", orphan.LibraryID)
	}
	if orphan.HasRepo {
		t.Error("orphan HasRepo = true, want false")
	}
	if !orphan.LastFetched.IsZero() {
		t.Errorf("orphan LastFetched = %v, want zero", orphan.LastFetched)
	}
}

func TestListMissingDir(t *testing.T) {
	st, err := store.Open(t.TempDir() + "/absent")
	if err != nil {
		t.Fatal(err)
	}
	items, err := List(st, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %+v, want none", items)
	}
}

func TestReadContent(t *testing.T) {
	st := tempStore(t)
	body := "# Title\n" + strings.Repeat("x", 50)
	if _, _, err := st.WriteDoc("lib", ".md", []byte(body)); err != nil {
		t.Fatal(err)
	}

	c, err := ReadContent(st, "lib", 0)
	if err != nil {
		t.Fatalf("ReadContent: %v", err)
	}
	if c.Truncated || c.Text != body {
		t.Errorf("full read = %q (truncated=%v)", c.Text, c.Truncated)
	}
	if c.FileName != "lib.md" {
		t.Errorf("FileName = %q, want lib.md", c.FileName)
	}
	if c.FullLength != len(body) || c.MaxChars != DefaultMaxChars {
		t.Errorf("FullLength/MaxChars = %d/%d", c.FullLength, c.MaxChars)
	}

	c, err = ReadContent(st, "lib.md", 7)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Truncated {
		t.Error("truncated = false, want true")
	}
	if c.Text != "# Title" {
		t.Errorf("truncated read = %q, want %q", c.Text, "# Title")
	}
	if c.FullLength != len(body) {
		t.Errorf("FullLength = %d, want the untruncated length %d", c.FullLength, len(body))
	}
}

func TestReadContentNotFound(t *testing.T) {
	st := tempStore(t)
	_, err := ReadContent(st, "missing", 100)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestTruncateRuneSafe(t *testing.T) {
	s := "héllo wörld"
	got, truncated := Truncate(s, 4)
	if !truncated {
		t.Fatal("truncated = false, want true")
	}
	if got != "héll" {
		t.Errorf("Truncate = %q, want %q", got, "héll")
	}

	if got, truncated := Truncate("short", 100); truncated || got != "short" {
		t.Errorf("Truncate under limit = %q (%v)", got, truncated)
	}
	if got, truncated := Truncate("exact", 5); truncated || got != "exact" {
		t.Errorf("Truncate at exact limit = %q (%v), want unchanged", got, truncated)
	}
}
