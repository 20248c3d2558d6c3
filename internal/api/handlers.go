package api

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/context7"
	"github.com/starford/ansuz/internal/docservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docName extracts the document name from the URL (everything after
// /api/libraries/). Supports encoded slashes from OpenAPI clients
// (e.g. gradio_app_gradio%2Emd).
func docName(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// clientIP reports the caller's address for upstream attribution. With
// the RealIP middleware in front, RemoteAddr is already a bare IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SearchLibraries handles GET /api/search.
//
//	@Summary		Search the remote library catalog
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Library name or topic"
//	@Success		200	{object}	SearchResponse
//	@Failure		400	{object}	errResponse
//	@Failure		429	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) SearchLibraries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	sr, err := h.svc.SearchRemote(r.Context(), q, clientIP(r))
	if err != nil {
		writeServiceError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Results:   sr.Results,
		Formatted: context7.FormatSearchResults(sr),
	})
}

// FetchLibrary handles POST /api/libraries.
//
//	@Summary		Fetch documentation for a library and store it
//	@Tags			libraries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FetchRequest	true	"Library to fetch"
//	@Success		200		{object}	FetchResult		"Fetched without saving"
//	@Success		201		{object}	FetchResult		"Fetched and stored"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		429		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/libraries [post]
func (h *Handler) FetchLibrary(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req FetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.LibraryID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("library_id is required"))
		return
	}

	opts := docservice.FetchOptions{
		Topic:       req.Topic,
		Tokens:      req.Tokens,
		ClientIP:    clientIP(r),
		NoSave:      req.Save != nil && !*req.Save,
		SyncRepo:    req.SyncRepo,
		RefreshRepo: req.RefreshRepo,
		SearchQuery: req.SearchQuery,
	}
	res, err := h.svc.Fetch(r.Context(), req.LibraryID, opts)
	if err != nil {
		writeServiceError(w, "fetch", err)
		return
	}
	status := http.StatusOK
	if res.Artifact != nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// ListLibraries handles GET /api/libraries.
//
//	@Summary		List downloaded documentation libraries
//	@Tags			libraries
//	@Produce		json
//	@Param			dir	query		string	false	"Directory to list instead of the default"
//	@Success		200	{object}	LibraryListResponse
//	@Security		BearerAuth
//	@Router			/libraries [get]
func (h *Handler) ListLibraries(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	items, err := h.svc.List(dir)
	if err != nil {
		writeServiceError(w, "list", err)
		return
	}
	if dir == "" {
		dir = h.svc.BaseDir()
	}
	writeJSON(w, http.StatusOK, LibraryListResponse{
		BaseDirectory: dir,
		Libraries:     items,
	})
}

// GetLibraryContent handles GET /api/libraries/*.
//
//	@Summary		Read a stored documentation file
//	@Tags			libraries
//	@Produce		json
//	@Param			name		path		string	true	"Document name, with or without .md"
//	@Param			max_chars	query		int		false	"Truncation limit, default 10000"
//	@Param			dir			query		string	false	"Directory to read from instead of the default"
//	@Success		200			{object}	ContentResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/libraries/{name} [get]
func (h *Handler) GetLibraryContent(w http.ResponseWriter, r *http.Request) {
	name := docName(r)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("document name is required"))
		return
	}
	q := r.URL.Query()
	maxChars, _ := strconv.Atoi(q.Get("max_chars"))

	c, err := h.svc.Read(q.Get("dir"), name, maxChars)
	if err != nil {
		writeServiceError(w, "read", err)
		return
	}
	writeJSON(w, http.StatusOK, ContentResponse{
		FileName:   c.FileName,
		Content:    c.Text,
		FullLength: c.FullLength,
		Truncated:  c.Truncated,
		MaxChars:   c.MaxChars,
	})
}

// SearchLocal handles GET /api/local-search.
//
//	@Summary		Full-text search across downloaded documentation
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	LocalSearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/local-search [get]
func (h *Handler) SearchLocal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.svc.SearchLocal(q, limit)
	if err != nil {
		writeServiceError(w, "local search", err)
		return
	}
	writeJSON(w, http.StatusOK, LocalSearchResponse{Results: hits})
}

// Reconcile handles GET /api/index/reconcile.
//
//	@Summary		Report drift between INDEX.md and the documents on disk
//	@Tags			index
//	@Produce		json
//	@Param			dir	query		string	false	"Directory to check instead of the default"
//	@Success		200	{object}	ReconcileResponse
//	@Security		BearerAuth
//	@Router			/index/reconcile [get]
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Reconcile(r.URL.Query().Get("dir"))
	if err != nil {
		writeServiceError(w, "reconcile", err)
		return
	}
	writeJSON(w, http.StatusOK, ReconcileResponse{
		Clean:     report.Clean(),
		Orphaned:  report.Orphaned,
		Untracked: report.Untracked,
	})
}
