// Package docservice coordinates the documentation workflow: remote
// catalog search, fetch-and-store, catalog reads, local search, and
// index reconciliation. Transports (HTTP API, MCP server, CLI) call
// into this package and stay free of domain logic.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/context7"
	"github.com/starford/ansuz/internal/docindex"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/reposync"
	"github.com/starford/ansuz/internal/search"
	"github.com/starford/ansuz/internal/store"
)

// Service owns the documentation store and its collaborators. The
// search cache is optional: a nil cache disables local search and
// nothing else.
type Service struct {
	store  store.Provider
	idx    *docindex.Manager
	client *context7.Client
	syncer *reposync.Syncer
	cache  search.Searcher
	logger *slog.Logger
}

// New assembles a service. cache may be nil.
func New(st store.Provider, idx *docindex.Manager, client *context7.Client, syncer *reposync.Syncer, cache search.Searcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		idx:    idx,
		client: client,
		syncer: syncer,
		cache:  cache,
		logger: logger,
	}
}

// BaseDir returns the default documentation directory.
func (s *Service) BaseDir() string { return s.store.Root() }

// SearchRemote queries the upstream library catalog.
func (s *Service) SearchRemote(ctx context.Context, query, clientIP string) (*context7.SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("docservice: search query is required")
	}
	return s.client.Search(ctx, query, clientIP)
}

// List returns the catalog of downloaded documentation in baseDir, or
// in the default directory when baseDir is empty. The directory scan
// is authoritative; index damage degrades to unannotated items and is
// logged, never returned.
func (s *Service) List(baseDir string) ([]models.CatalogItem, error) {
	st, idx, err := s.storeFor(baseDir)
	if err != nil {
		return nil, err
	}
	entries, err := idx.Entries()
	if err != nil {
		if !errors.Is(err, apperr.ErrIndexCorrupt) {
			entries = nil
		}
		s.logger.Warn("index unavailable, listing from directory scan",
			slog.String("dir", st.Root()),
			slog.String("error", err.Error()))
	}
	items, err := catalog.List(st, entries)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(items), nil
}

// Read returns up to maxChars characters of a stored document.
// maxChars <= 0 selects the default budget.
func (s *Service) Read(baseDir, name string, maxChars int) (*catalog.Content, error) {
	st, _, err := s.storeFor(baseDir)
	if err != nil {
		return nil, err
	}
	return catalog.ReadContent(st, name, maxChars)
}

// IndexMarkdown returns the raw INDEX.md content of the default
// directory.
func (s *Service) IndexMarkdown() (string, error) {
	data, err := s.store.ReadDoc(store.IndexFileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("docservice: index: %w", apperr.ErrNotFound)
		}
		return "", fmt.Errorf("docservice: index: %w", err)
	}
	return string(data), nil
}

// Reconcile reports drift between the index file and the documents on
// disk without repairing anything.
func (s *Service) Reconcile(baseDir string) (*models.ReconciliationReport, error) {
	st, idx, err := s.storeFor(baseDir)
	if err != nil {
		return nil, err
	}
	docs, err := st.List()
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(docs))
	for _, d := range docs {
		files = append(files, d.Name)
	}
	return idx.Reconcile(files)
}

// SearchLocal runs a full-text query over the cached documentation.
func (s *Service) SearchLocal(query string, limit int) ([]search.Hit, error) {
	if s.cache == nil {
		return nil, errors.New("docservice: local search cache is disabled")
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("docservice: search query is required")
	}
	hits, err := s.cache.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(hits), nil
}

// storeFor resolves a per-call directory override. The default store
// and index manager are reused for the default directory so their
// locking applies; override directories get read-oriented instances
// and are never created as a side effect.
func (s *Service) storeFor(baseDir string) (store.Provider, *docindex.Manager, error) {
	if baseDir == "" {
		return s.store, s.idx, nil
	}
	if abs, err := filepath.Abs(baseDir); err == nil && abs == s.store.Root() {
		return s.store, s.idx, nil
	}
	st, err := store.Open(baseDir)
	if err != nil {
		return nil, nil, err
	}
	return st, docindex.NewManager(st.IndexPath(), s.logger), nil
}

// nonNilSlice normalizes nil to an empty slice so JSON encodes [] and
// not null.
func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
