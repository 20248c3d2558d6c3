package api

import (
	"github.com/starford/ansuz/internal/context7"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/search"
)

// FetchRequest is the request body for fetching library documentation.
type FetchRequest struct {
	LibraryID   string `json:"library_id" example:"/gradio-app/gradio" validate:"required"`
	Topic       string `json:"topic,omitempty" example:"interfaces"`
	Tokens      int    `json:"tokens,omitempty" example:"5000"`
	Save        *bool  `json:"save,omitempty" example:"true"`
	SyncRepo    bool   `json:"sync_repo,omitempty" example:"false"`
	RefreshRepo bool   `json:"refresh_repo,omitempty" example:"false"`
	SearchQuery string `json:"search_query,omitempty" example:"gradio ui"`
}

// FetchResult is the fetch response payload (aliased from the domain layer).
type FetchResult = models.FetchResult

// LibraryListResponse wraps the downloaded-library catalog.
type LibraryListResponse struct {
	BaseDirectory string               `json:"base_directory" validate:"required"`
	Libraries     []models.CatalogItem `json:"libraries" validate:"required"`
}

// ContentResponse carries a stored document, possibly truncated.
type ContentResponse struct {
	FileName   string `json:"filename" example:"gradio_app_gradio.md" validate:"required"`
	Content    string `json:"content" validate:"required"`
	FullLength int    `json:"full_length" example:"48213" validate:"required"`
	Truncated  bool   `json:"truncated" example:"false" validate:"required"`
	MaxChars   int    `json:"max_chars" example:"10000" validate:"required"`
}

// SearchResponse wraps remote catalog search results.
type SearchResponse struct {
	Results   []context7.SearchResult `json:"results" validate:"required"`
	Formatted string                  `json:"formatted_text" validate:"required"`
}

// LocalSearchResponse wraps local full-text search hits.
type LocalSearchResponse struct {
	Results []search.Hit `json:"results" validate:"required"`
}

// ReconcileResponse reports index/directory drift.
type ReconcileResponse struct {
	Clean     bool                `json:"clean" example:"true" validate:"required"`
	Orphaned  []models.IndexEntry `json:"orphaned" validate:"required"`
	Untracked []string            `json:"untracked" validate:"required"`
}
