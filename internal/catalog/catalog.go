// Package catalog builds read-side views of the documentation store:
// the downloaded-library listing and truncated content reads. The
// directory scan is the source of truth; index rows only annotate it,
// so a missing or damaged index never hides a document.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"unicode/utf8"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/libid"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
)

// DefaultMaxChars limits content reads when the caller does not pick a
// budget.
const DefaultMaxChars = 10000

// List returns one item per stored document, annotated with the index
// entry that matches its file name when one exists.
func List(st store.Provider, entries []models.IndexEntry) ([]models.CatalogItem, error) {
	docs, err := st.List()
	if err != nil {
		return nil, err
	}

	byFile := make(map[string]models.IndexEntry, len(entries))
	for _, e := range entries {
		byFile[e.FilePath] = e
	}

	items := make([]models.CatalogItem, 0, len(docs))
	for _, doc := range docs {
		item := models.CatalogItem{
			BaseName:   doc.BaseName,
			FileName:   doc.Name,
			LibraryID:  libid.FromFileName(doc.Name),
			SizeBytes:  doc.SizeBytes,
			ModifiedAt: doc.ModifiedAt,
			HasRepo:    st.HasRepoDir(doc.BaseName),
		}
		if e, ok := byFile[doc.Name]; ok {
			if e.DisplayName != "" {
				item.LibraryID = e.DisplayName
			}
			item.RepoStatus = e.RepoStatus
			item.Topic = e.Topic
			item.SearchQuery = e.SearchQuery
			item.LastFetched = e.LastUpdated
		}
		items = append(items, item)
	}
	return items, nil
}

// Content is one document read, possibly truncated.
type Content struct {
	// FileName is the resolved on-disk name, extension included.
	FileName string
	// Text holds at most MaxChars characters of the document.
	Text string
	// FullLength counts the characters of the whole document.
	FullLength int
	// Truncated reports whether Text was cut at MaxChars.
	Truncated bool
	// MaxChars is the limit that was applied.
	MaxChars int
}

// ReadContent returns up to maxChars characters of a stored document.
// The name may be given with or without the .md extension; a missing
// document maps to apperr.ErrNotFound.
func ReadContent(st store.Provider, name string, maxChars int) (*Content, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if !strings.HasSuffix(name, libid.Suffix) {
		name += libid.Suffix
	}

	data, err := st.ReadDoc(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("catalog: %s: %w", name, apperr.ErrNotFound)
		}
		return nil, err
	}
	full := string(data)
	text, truncated := Truncate(full, maxChars)
	return &Content{
		FileName:   name,
		Text:       text,
		FullLength: utf8.RuneCountInString(full),
		Truncated:  truncated,
		MaxChars:   maxChars,
	}, nil
}

// Truncate cuts s after limit characters. The cut is measured in runes
// so a multi-byte sequence is never split. limit <= 0 means no limit.
func Truncate(s string, limit int) (string, bool) {
	if limit <= 0 {
		return s, false
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i], true
		}
		count++
	}
	return s, false
}
