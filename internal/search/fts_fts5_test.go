//go:build sqlite_fts5

package search

import (
	"strings"
	"testing"
	"time"
)

func TestFTSSnippetHighlighting(t *testing.T) {
	db := testDB(t)
	err := db.UpsertDoc(
		DocRow{BaseName: "fastapi", DisplayName: "/tiangolo/fastapi", Checksum: "1", FetchedAt: time.Now()},
		"FastAPI supports dependency injection for request handling.",
	)
	if err != nil {
		t.Fatal(err)
	}

	hits, err := db.Search("dependency", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}
	if !strings.Contains(hits[0].Snippet, "<b>dependency</b>") {
		t.Errorf("snippet = %q, want highlighted match", hits[0].Snippet)
	}
}

func TestFTSMatchesTopicColumn(t *testing.T) {
	db := testDB(t)
	err := db.UpsertDoc(
		DocRow{BaseName: "nextjs", DisplayName: "/vercel/next.js", Checksum: "1", Topic: "routing", FetchedAt: time.Now()},
		"The React framework.",
	)
	if err != nil {
		t.Fatal(err)
	}

	hits, err := db.Search("routing", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].BaseName != "nextjs" {
		t.Errorf("hits = %+v, want nextjs via topic", hits)
	}
}
