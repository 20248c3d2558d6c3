// Package models defines the domain types for Ansuz.
package models

import "time"

// RepoSyncStatus describes the outcome of an optional source-repository
// sync performed alongside a documentation fetch.
type RepoSyncStatus string

const (
	// RepoNotRequested means the caller did not ask for a repository sync.
	RepoNotRequested RepoSyncStatus = "not_requested"
	// RepoSynced means the repository was cloned or updated successfully.
	RepoSynced RepoSyncStatus = "synced"
	// RepoSkipped means the sync was intentionally not performed.
	RepoSkipped RepoSyncStatus = "skipped"
	// RepoFailed means the clone or update ran and failed.
	RepoFailed RepoSyncStatus = "failed"
)

// RepoSyncResult carries the status of a repository sync attempt. Sync
// failures are reported here as data, never as an error of the fetch
// that triggered them.
type RepoSyncResult struct {
	Status RepoSyncStatus `json:"status"`
	URL    string         `json:"url,omitempty"`
	Path   string         `json:"path,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

// DocumentArtifact describes a documentation file written to the store.
type DocumentArtifact struct {
	BaseName  string    `json:"base_name"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	Topic     string    `json:"topic,omitempty"`
	Tokens    int       `json:"tokens,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// IndexEntry is one managed row of the index file.
type IndexEntry struct {
	BaseName    string         `json:"base_name"`
	DisplayName string         `json:"display_name"`
	FilePath    string         `json:"file_path"`
	SizeBytes   int64          `json:"size_bytes"`
	LastUpdated time.Time      `json:"last_updated"`
	RepoStatus  RepoSyncStatus `json:"repo_status,omitempty"`
	Topic       string         `json:"topic,omitempty"`
	SearchQuery string         `json:"search_query,omitempty"`
}

// ReconciliationReport lists the disagreements between the index file
// and the documents actually on disk.
type ReconciliationReport struct {
	// Orphaned are index rows whose file no longer exists.
	Orphaned []IndexEntry `json:"orphaned"`
	// Untracked are document files that have no index row.
	Untracked []string `json:"untracked"`
}

// Clean reports whether the index and the directory agree.
func (r *ReconciliationReport) Clean() bool {
	return len(r.Orphaned) == 0 && len(r.Untracked) == 0
}

// CatalogItem is one downloaded library as presented by list
// operations. Index-derived fields are best effort: a document without
// an index row still appears, with LibraryID reconstructed from its
// file name.
type CatalogItem struct {
	BaseName    string         `json:"base_name"`
	FileName    string         `json:"file_name"`
	LibraryID   string         `json:"library_id"`
	SizeBytes   int64          `json:"size_bytes"`
	ModifiedAt  time.Time      `json:"modified_at"`
	HasRepo     bool           `json:"has_repository"`
	RepoStatus  RepoSyncStatus `json:"repo_status,omitempty"`
	Topic       string         `json:"topic,omitempty"`
	SearchQuery string         `json:"search_query,omitempty"`
	LastFetched time.Time      `json:"last_fetched,omitzero"`
}

// FetchResult is the full outcome of a documentation fetch: the
// retrieved text plus, when persistence was requested, the stored
// artifact and the repository sync status.
type FetchResult struct {
	LibraryID string            `json:"library_id"`
	Content   string            `json:"content"`
	Length    int               `json:"length"`
	Artifact  *DocumentArtifact `json:"artifact,omitempty"`
	RepoSync  RepoSyncResult    `json:"repo_sync"`
}
