package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *docservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Remote catalog.
	r.Get("/search", h.SearchLibraries)

	// Downloaded libraries.
	r.Get("/libraries", h.ListLibraries)
	r.Post("/libraries", h.FetchLibrary)
	r.Get("/libraries/*", h.GetLibraryContent)

	// Local search and index maintenance.
	r.Get("/local-search", h.SearchLocal)
	r.Get("/index/reconcile", h.Reconcile)

	return r
}
