// Package store implements the on-disk documentation store: a flat
// directory holding one Markdown artifact per library, an INDEX.md
// catalog file, and optional cloned source repositories in sibling
// "<base>_repo" directories.
package store

import "time"

// IndexFileName is the reserved name of the catalog file. It is never
// listed as a document.
const IndexFileName = "INDEX.md"

// DocInfo is the file-level metadata of one stored document.
type DocInfo struct {
	Name       string // file name, e.g. "gradio_app_gradio.md"
	BaseName   string // file name without its extension
	SizeBytes  int64
	ModifiedAt time.Time
}

// Provider is the interface for documentation store operations.
type Provider interface {
	// Root returns the absolute path of the store directory.
	Root() string
	// WriteDoc atomically writes a document and returns its absolute
	// path and size in bytes.
	WriteDoc(baseName, suffix string, content []byte) (string, int64, error)
	// ReadDoc returns the raw bytes of a stored file by name.
	ReadDoc(name string) ([]byte, error)
	// List returns metadata for every document in the store, sorted by
	// file name. A missing store directory yields an empty list.
	List() ([]DocInfo, error)
	// HasRepoDir reports whether a cloned repository exists for base.
	HasRepoDir(baseName string) bool
	// RepoDir returns the absolute path where the repository for base
	// is (or would be) cloned.
	RepoDir(baseName string) string
	// IndexPath returns the absolute path of the INDEX.md file.
	IndexPath() string
}
