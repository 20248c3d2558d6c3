// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/context7"
	"github.com/starford/ansuz/internal/docindex"
	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/reposync"
	"github.com/starford/ansuz/internal/search"
	"github.com/starford/ansuz/internal/store"
)

// Run starts the HTTP server with the given options: the REST API plus
// a file watcher that keeps the search cache current.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("base_dir", cfg.Store.BaseDir),
		slog.Bool("search_enabled", cfg.Search.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// The watcher needs the documentation directory to exist, so serve
	// mode creates it up front.
	st, err := store.New(cfg.Store.BaseDir)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	svc, idx, db, err := NewService(cfg, st, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	// Build API router.
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the search cache current. A watcher failure degrades local
	// search; it never takes the API down.
	if db != nil {
		g.Go(func() error {
			if err := search.Watch(gCtx, db, st, idx, logger); err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the documentation tools over stdio with the given
// options. Logs go to stderr because stdout carries the protocol
// stream.
func RunMCP(opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	// Stdio mode has no watcher, so the directory is left alone until
	// the first fetch creates it.
	st, err := store.Open(cfg.Store.BaseDir)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	svc, _, db, err := NewService(cfg, st, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	logger.Info("MCP server starting on stdio", slog.String("base_dir", st.Root()))
	if err := mcpserver.New(svc).ServeStdio(); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	logger.Info("MCP server stopped")
	return nil
}

// NewService assembles the documentation service and its collaborators
// on top of st. The search cache is opened, synced, and wired only
// when it is enabled and st is rooted at the configured base
// directory: syncing the cache against any other directory would drop
// the rows of the configured one. The caller owns closing a non-nil
// *search.DB.
func NewService(cfg *Config, st *store.Dir, logger *slog.Logger) (*docservice.Service, *docindex.Manager, *search.DB, error) {
	idx := docindex.NewManager(st.IndexPath(), logger)

	var cache search.Searcher
	var db *search.DB
	if cfg.Search.Enabled && isConfiguredRoot(cfg, st) {
		opened, err := search.Open(cfg.Search.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("init search cache: %w", err)
		}
		// Pick up whatever is already on disk.
		if err := search.Sync(opened, st, idx, logger); err != nil {
			logger.Warn("initial cache sync failed", slog.String("error", err.Error()))
		}
		db = opened
		cache = opened
	}

	client := context7.New(context7.Config{
		BaseURL:     cfg.Context7.BaseURL,
		APIKey:      cfg.Context7.APIKey,
		ClientIPKey: cfg.Context7.ClientIPKey,
	})

	svc := docservice.New(st, idx, client, reposync.New(logger), cache, logger)
	return svc, idx, db, nil
}

func isConfiguredRoot(cfg *Config, st *store.Dir) bool {
	abs, err := filepath.Abs(cfg.Store.BaseDir)
	return err == nil && abs == st.Root()
}
