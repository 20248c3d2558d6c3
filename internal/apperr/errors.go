// Package apperr defines the sentinel errors shared across the
// application. Handlers and CLI commands map these to exit codes and
// HTTP statuses with errors.Is.
package apperr

import "errors"

var (
	// ErrInvalidIdentifier means a library identifier is empty after
	// normalization or otherwise unusable as a file name.
	ErrInvalidIdentifier = errors.New("invalid library identifier")

	// ErrNotFound means the requested document or resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotText means fetched content is not valid UTF-8 and cannot be
	// stored as a Markdown document.
	ErrNotText = errors.New("content is not valid text")

	// ErrIndexCorrupt means the managed section of the index file could
	// not be fully parsed. Callers may continue with the rows that did
	// parse; the section is rebuilt on the next upsert.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrNoContent means the documentation API answered with an empty or
	// sentinel body instead of documentation.
	ErrNoContent = errors.New("no content available")

	// ErrRateLimited means the documentation API rejected the request
	// with HTTP 429.
	ErrRateLimited = errors.New("rate limited")
)
