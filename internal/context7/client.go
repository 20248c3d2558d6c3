// Package context7 is the HTTP client for the Context7 documentation
// API: library search and documentation retrieval.
package context7

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://context7.com/api"

// DefaultClientIPKey is the published shared key for client IP
// forwarding, overridable via configuration for private deployments.
const DefaultClientIPKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

const (
	sourceHeaderName  = "X-Context7-Source"
	sourceHeaderValue = "mcp-server"
	clientIPHeader    = "mcp-client-ip"
	docType           = "txt"
)

// emptyBodies are the sentinel payloads the API answers with instead
// of an HTTP error when a library has no documentation.
var emptyBodies = map[string]struct{}{
	"No content available":      {},
	"No context data available": {},
}

// Config carries the client settings. The zero value talks to the
// production API anonymously.
type Config struct {
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
	// APIKey, when set, is sent as a bearer token.
	APIKey string
	// ClientIPKey is the hex AES-256 key used to encrypt forwarded
	// client IPs. An unusable key degrades to plaintext forwarding.
	ClientIPKey string
}

// Client calls the Context7 API.
type Client struct {
	baseURL string
	apiKey  string
	ipKey   string
	http    *http.Client
}

// New returns a ready-to-use client.
func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  cfg.APIKey,
		ipKey:   cfg.ClientIPKey,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		},
	}
}

// SearchResult is one library in a search response. Score fields are
// pointers because the API omits them or marks them absent with -1.
type SearchResult struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Branch         string   `json:"branch,omitempty"`
	LastUpdateDate string   `json:"lastUpdateDate,omitempty"`
	TotalTokens    int      `json:"totalTokens,omitempty"`
	TotalSnippets  *int     `json:"totalSnippets,omitempty"`
	TrustScore     *float64 `json:"trustScore,omitempty"`
	BenchmarkScore *float64 `json:"benchmarkScore,omitempty"`
	Versions       []string `json:"versions,omitempty"`
}

// SearchResponse is the payload of GET /v1/search.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// Search queries the library catalog. HTTP 429 maps to
// apperr.ErrRateLimited so callers can present the retry hint.
func (c *Client) Search(ctx context.Context, query, clientIP string) (*SearchResponse, error) {
	u := c.baseURL + "/v1/search?query=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("context7: build search request: %w", err)
	}
	c.setHeaders(req, clientIP)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("context7: search %q: %w", query, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("context7: search %q: %w", query, apperr.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("context7: search %q: unexpected status %d", query, resp.StatusCode)
	}

	var sr SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("context7: decode search response: %w", err)
	}
	return &sr, nil
}

// DocsRequest are the optional knobs of a documentation fetch.
type DocsRequest struct {
	// Topic narrows the documentation to one area, e.g. "routing".
	Topic string
	// Tokens is the size budget; 0 leaves the choice to the API.
	Tokens int
	// ClientIP, when known, is forwarded (encrypted) to the API.
	ClientIP string
}

// Docs fetches the documentation text for a library ID such as
// "/gradio-app/gradio". Empty and sentinel bodies map to
// apperr.ErrNoContent.
func (c *Client) Docs(ctx context.Context, libraryID string, r DocsRequest) (string, error) {
	id := strings.TrimLeft(strings.TrimSpace(libraryID), "/")
	if id == "" {
		return "", fmt.Errorf("context7: docs: empty library id: %w", apperr.ErrInvalidIdentifier)
	}

	q := url.Values{}
	q.Set("type", docType)
	if r.Tokens > 0 {
		q.Set("tokens", strconv.Itoa(r.Tokens))
	}
	if r.Topic != "" {
		q.Set("topic", r.Topic)
	}
	u := c.baseURL + "/v1/" + id + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("context7: build docs request: %w", err)
	}
	c.setHeaders(req, r.ClientIP)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("context7: docs %s: %w", libraryID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("context7: docs %s: %w", libraryID, apperr.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("context7: docs %s: %w", libraryID, apperr.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("context7: docs %s: unexpected status %d", libraryID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("context7: read docs body: %w", err)
	}
	text := strings.TrimSpace(string(body))
	if _, empty := emptyBodies[text]; empty || text == "" {
		return "", fmt.Errorf("context7: docs %s: %w", libraryID, apperr.ErrNoContent)
	}
	return string(body), nil
}

func (c *Client) setHeaders(req *http.Request, clientIP string) {
	req.Header.Set(sourceHeaderName, sourceHeaderValue)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if clientIP != "" {
		req.Header.Set(clientIPHeader, EncryptIP(c.ipKey, clientIP))
	}
}
