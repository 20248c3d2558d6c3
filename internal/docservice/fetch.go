package docservice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/context7"
	"github.com/starford/ansuz/internal/libid"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/reposync"
	"github.com/starford/ansuz/internal/search"
)

// FetchOptions control one documentation fetch. The zero value fetches
// with API defaults, saves the document, and leaves the repository
// alone.
type FetchOptions struct {
	// Topic narrows the documentation to one area, e.g. "routing".
	Topic string
	// Tokens is the documentation size budget; 0 lets the API choose.
	Tokens int
	// ClientIP, when known, is forwarded to the API for attribution.
	ClientIP string
	// NoSave returns the content without touching the store or index.
	NoSave bool
	// SyncRepo also clones the library's source repository.
	SyncRepo bool
	// RefreshRepo updates an existing clone instead of skipping it.
	RefreshRepo bool
	// SearchQuery records which query led to this library; it only
	// annotates the index row.
	SearchQuery string
}

// Validate rejects option combinations that cannot be honored.
func (o FetchOptions) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Tokens, validation.Min(0)),
		validation.Field(&o.SyncRepo,
			validation.When(o.NoSave, validation.In(false).Error("cannot sync a repository without saving"))),
		validation.Field(&o.RefreshRepo,
			validation.When(!o.SyncRepo, validation.In(false).Error("requires repository sync"))),
	)
}

// Fetch retrieves documentation for a library ID such as
// "/gradio-app/gradio", stores it, updates the index row and the
// search cache, and optionally clones the source repository. A repo
// sync failure is reported inside the result, not as an error; index
// update failures are errors because the artifact would otherwise
// become invisible to the catalog annotations.
func (s *Service) Fetch(ctx context.Context, libraryID string, opts FetchOptions) (*models.FetchResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("docservice: fetch options: %w", err)
	}
	base, err := libid.Normalize(libraryID)
	if err != nil {
		return nil, err
	}
	display := libid.Display(libraryID)

	s.logger.Info("fetching documentation",
		slog.String("library", display),
		slog.String("topic", opts.Topic),
		slog.Int("tokens", opts.Tokens))

	text, err := s.client.Docs(ctx, libraryID, context7.DocsRequest{
		Topic:    opts.Topic,
		Tokens:   opts.Tokens,
		ClientIP: opts.ClientIP,
	})
	if err != nil {
		return nil, err
	}

	res := &models.FetchResult{
		LibraryID: display,
		Content:   text,
		Length:    utf8.RuneCountInString(text),
		RepoSync:  models.RepoSyncResult{Status: models.RepoNotRequested},
	}
	if opts.NoSave {
		return res, nil
	}

	path, size, err := s.store.WriteDoc(base, "", []byte(text))
	if err != nil {
		return nil, err
	}
	now := time.Now()
	res.Artifact = &models.DocumentArtifact{
		BaseName:  base,
		FilePath:  path,
		SizeBytes: size,
		Topic:     opts.Topic,
		Tokens:    opts.Tokens,
		FetchedAt: now,
	}
	s.logger.Info("documentation saved",
		slog.String("file", filepath.Base(path)),
		slog.Int64("bytes", size))

	if opts.SyncRepo {
		res.RepoSync = s.syncRepo(ctx, text, base, opts.RefreshRepo)
	}

	entry := models.IndexEntry{
		BaseName:    base,
		DisplayName: display,
		FilePath:    filepath.Base(path),
		SizeBytes:   size,
		LastUpdated: now,
		RepoStatus:  res.RepoSync.Status,
		Topic:       opts.Topic,
		SearchQuery: opts.SearchQuery,
	}
	if err := s.idx.Upsert(entry); err != nil {
		return nil, err
	}

	if s.cache != nil {
		row := search.DocRow{
			BaseName:    base,
			DisplayName: display,
			Checksum:    search.Checksum([]byte(text)),
			Topic:       opts.Topic,
			FetchedAt:   now,
		}
		// Cache updates are best effort; the watcher or the next sync
		// will repair a miss.
		if err := s.cache.UpsertDoc(row, text); err != nil {
			s.logger.Warn("search cache update failed",
				slog.String("base", base),
				slog.String("error", err.Error()))
		}
	}
	return res, nil
}

// syncRepo locates the library's repository in the fetched text and
// hands it to the syncer. All outcomes come back as data.
func (s *Service) syncRepo(ctx context.Context, doc, base string, refresh bool) models.RepoSyncResult {
	repoURL := reposync.ExtractRepoURL(doc)
	if repoURL == "" {
		return models.RepoSyncResult{
			Status: models.RepoSkipped,
			Reason: "no repository reference in documentation",
		}
	}
	return s.syncer.Sync(ctx, repoURL, s.store.RepoDir(base), reposync.Options{Refresh: refresh})
}
