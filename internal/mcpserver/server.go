// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the documentation tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/context7"
	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/models"
)

const (
	indexResourceURI = "ansuz://index"
	usageResourceURI = "ansuz://usage"
)

// Server wraps the MCP server with the documentation tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates an MCP server with all tools registered.
func New(svc *docservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_libraries",
		mcp.WithDescription("Search the Context7 catalog for documentation libraries matching a query. "+
			"Returns library IDs usable with fetch_library_documentation."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Library name or topic to search for")),
		mcp.WithString("client_ip", mcp.Description("Optional client IP forwarded to the API for attribution")),
	), s.searchLibraries)

	s.mcp.AddTool(mcp.NewTool("fetch_library_documentation",
		mcp.WithDescription("Fetch documentation for a library by its Context7 ID (e.g. /gradio-app/gradio) "+
			"and save it into the local knowledge base."),
		mcp.WithString("library_id", mcp.Required(), mcp.Description("Context7-compatible library ID")),
		mcp.WithString("topic", mcp.Description("Optional topic to focus the documentation on")),
		mcp.WithNumber("tokens", mcp.Description("Documentation size budget in tokens (0 = API default)")),
		mcp.WithString("client_ip", mcp.Description("Optional client IP forwarded to the API for attribution")),
		mcp.WithBoolean("save_to_file", mcp.DefaultBool(true), mcp.Description("Persist the documentation to the knowledge base")),
		mcp.WithBoolean("sync_repo", mcp.DefaultBool(false), mcp.Description("Also clone the library's source repository")),
		mcp.WithBoolean("refresh_repo", mcp.DefaultBool(false), mcp.Description("Update an existing repository clone instead of skipping it")),
		mcp.WithString("search_query", mcp.Description("Search query that led to this library; recorded in the index")),
	), s.fetchLibraryDocumentation)

	s.mcp.AddTool(mcp.NewTool("list_downloaded_libraries",
		mcp.WithDescription("List the documentation libraries already downloaded into the knowledge base."),
		mcp.WithString("base_dir", mcp.Description("Optional directory to list instead of the default")),
	), s.listDownloadedLibraries)

	s.mcp.AddTool(mcp.NewTool("get_library_content",
		mcp.WithDescription("Read the stored documentation for a downloaded library."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Document file name, with or without the .md extension")),
		mcp.WithString("base_dir", mcp.Description("Optional directory to read from instead of the default")),
		mcp.WithNumber("max_chars", mcp.DefaultNumber(catalog.DefaultMaxChars), mcp.Description("Maximum characters to return")),
	), s.getLibraryContent)

	s.mcp.AddTool(mcp.NewTool("reconcile_index",
		mcp.WithDescription("Compare INDEX.md against the documents on disk and report rows without files "+
			"and files without rows. Changes nothing."),
		mcp.WithString("base_dir", mcp.Description("Optional directory to check instead of the default")),
	), s.reconcileIndex)

	s.mcp.AddTool(mcp.NewTool("search_local_docs",
		mcp.WithDescription("Full-text search across the already-downloaded documentation."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.DefaultNumber(20), mcp.Description("Maximum number of hits")),
	), s.searchLocalDocs)

	// Resource: the human-readable knowledge base index.
	s.mcp.AddResource(
		mcp.NewResource(indexResourceURI, "Knowledge Base Index",
			mcp.WithResourceDescription("The INDEX.md catalog of downloaded documentation."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readIndexResource,
	)

	// Resource: how the tools are meant to be used together.
	s.mcp.AddResource(
		mcp.NewResource(usageResourceURI, "Documentation Workflow",
			mcp.WithResourceDescription("How to search, fetch, and read documentation with these tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      usageResourceURI,
					MIMEType: "text/markdown",
					Text:     UsageGuide,
				},
			}, nil
		},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchLibraries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sr, err := s.svc.SearchRemote(ctx, query, req.GetString("client_ip", ""))
	if err != nil {
		return toolError(err), nil
	}

	payload := struct {
		Message   string                  `json:"message"`
		Results   []context7.SearchResult `json:"results"`
		Formatted string                  `json:"formatted_text"`
	}{
		Message:   fmt.Sprintf("Found %d libraries matching '%s'", len(sr.Results), query),
		Results:   sr.Results,
		Formatted: context7.FormatSearchResults(sr),
	}
	if len(sr.Results) == 0 {
		payload.Message = "No documentation libraries found matching your query."
		payload.Results = []context7.SearchResult{}
	}
	out, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) fetchLibraryDocumentation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	libraryID, err := req.RequireString("library_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts := docservice.FetchOptions{
		Topic:       req.GetString("topic", ""),
		Tokens:      req.GetInt("tokens", 0),
		ClientIP:    req.GetString("client_ip", ""),
		NoSave:      !req.GetBool("save_to_file", true),
		SyncRepo:    req.GetBool("sync_repo", false),
		RefreshRepo: req.GetBool("refresh_repo", false),
		SearchQuery: req.GetString("search_query", ""),
	}

	res, err := s.svc.Fetch(ctx, libraryID, opts)
	if err != nil {
		return toolError(err), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDownloadedLibraries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	baseDir := req.GetString("base_dir", "")

	items, err := s.svc.List(baseDir)
	if err != nil {
		return toolError(err), nil
	}

	dir := baseDir
	if dir == "" {
		dir = s.svc.BaseDir()
	}
	payload := struct {
		Message       string               `json:"message,omitempty"`
		BaseDirectory string               `json:"base_directory"`
		Libraries     []models.CatalogItem `json:"libraries"`
	}{
		BaseDirectory: dir,
		Libraries:     items,
	}
	if len(items) == 0 {
		payload.Message = "No documentation downloaded yet."
	}
	out, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getLibraryContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileName, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	baseDir := req.GetString("base_dir", "")
	maxChars := req.GetInt("max_chars", catalog.DefaultMaxChars)

	c, err := s.svc.Read(baseDir, fileName, maxChars)
	if err != nil {
		return toolError(err), nil
	}

	payload := struct {
		FileName   string `json:"filename"`
		Content    string `json:"content"`
		FullLength int    `json:"full_length"`
		Truncated  bool   `json:"truncated"`
		MaxChars   int    `json:"max_chars"`
	}{c.FileName, c.Text, c.FullLength, c.Truncated, c.MaxChars}
	out, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) reconcileIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	baseDir := req.GetString("base_dir", "")

	report, err := s.svc.Reconcile(baseDir)
	if err != nil {
		return toolError(err), nil
	}

	payload := struct {
		Message   string              `json:"message"`
		Clean     bool                `json:"clean"`
		Orphaned  []models.IndexEntry `json:"orphaned"`
		Untracked []string            `json:"untracked"`
	}{
		Clean:     report.Clean(),
		Orphaned:  report.Orphaned,
		Untracked: report.Untracked,
	}
	if report.Clean() {
		payload.Message = "Index and directory agree."
	} else {
		payload.Message = fmt.Sprintf("%d index rows without files, %d files without index rows.",
			len(report.Orphaned), len(report.Untracked))
	}
	out, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchLocalDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 20)

	hits, err := s.svc.SearchLocal(query, limit)
	if err != nil {
		return toolError(err), nil
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readIndexResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text, err := s.svc.IndexMarkdown()
	if errors.Is(err, apperr.ErrNotFound) {
		text = "# Knowledge Base Index\n\nNo documentation downloaded yet.\n"
	} else if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      indexResourceURI,
			MIMEType: "text/markdown",
			Text:     text,
		},
	}, nil
}

// toolError converts service errors into the messages surfaced to the
// model. Everything is reported as tool output, never as a protocol
// failure.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrRateLimited):
		return mcp.NewToolResultError("Rate limited due to too many requests. Please try again later.")
	case errors.Is(err, apperr.ErrNoContent):
		return mcp.NewToolResultError("No documentation available for this library.")
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("Not found. Check the name against list_downloaded_libraries.")
	case errors.Is(err, apperr.ErrInvalidIdentifier):
		return mcp.NewToolResultError("Invalid library ID. Use an ID returned by search_libraries, e.g. /gradio-app/gradio.")
	}
	return mcp.NewToolResultError(err.Error())
}
