package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/ansuz/internal/context7"
	"github.com/starford/ansuz/internal/docindex"
	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/reposync"
	"github.com/starford/ansuz/internal/search"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/testutil"
)

// testEnv sets up a temp store, a fake upstream API, the service, and
// the router. authToken == "" means auth is disabled.
func testEnv(t *testing.T, authToken string) (http.Handler, *store.Dir) {
	t.Helper()
	return testEnvFull(t, authToken, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# Docs\nbody text"))
	}, nil)
}

func testEnvFull(t *testing.T, authToken string, upstream http.HandlerFunc, cache search.Searcher) (http.Handler, *store.Dir) {
	t.Helper()

	api := httptest.NewServer(upstream)
	t.Cleanup(api.Close)

	_, st := testutil.TestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := docservice.New(
		st,
		docindex.NewManager(st.IndexPath(), logger),
		context7.New(context7.Config{BaseURL: api.URL}),
		reposync.New(logger),
		cache,
		logger,
	)
	return NewRouter(svc, authToken != "", authToken), st
}

func TestFetchAndGetContent(t *testing.T) {
	router, _ := testEnv(t, "")

	body, _ := json.Marshal(map[string]any{"library_id": "/gradio-app/gradio"})
	req := httptest.NewRequest(http.MethodPost, "/libraries", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("fetch status = %d, body = %s", w.Code, w.Body.String())
	}
	var fetched FetchResult
	_ = json.Unmarshal(w.Body.Bytes(), &fetched)
	if fetched.LibraryID != "/gradio-app/gradio" {
		t.Errorf("library_id = %q", fetched.LibraryID)
	}
	if fetched.Artifact == nil || fetched.Artifact.BaseName != "gradio_app_gradio" {
		t.Errorf("artifact = %+v", fetched.Artifact)
	}

	req = httptest.NewRequest(http.MethodGet, "/libraries/gradio_app_gradio.md", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", w.Code, w.Body.String())
	}
	var content ContentResponse
	_ = json.Unmarshal(w.Body.Bytes(), &content)
	if content.Content != "# Docs\nbody text" || content.Truncated {
		t.Errorf("content = %+v", content)
	}
}

func TestFetchNoSave(t *testing.T) {
	router, st := testEnv(t, "")

	body, _ := json.Marshal(map[string]any{"library_id": "/a/b", "save": false})
	req := httptest.NewRequest(http.MethodPost, "/libraries", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("no-save fetch = %d, want 200", w.Code)
	}
	var fetched FetchResult
	_ = json.Unmarshal(w.Body.Bytes(), &fetched)
	if fetched.Artifact != nil {
		t.Errorf("artifact = %+v, want none", fetched.Artifact)
	}

	docs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Errorf("store contains %d docs, want 0", len(docs))
	}
}

func TestFetchBadRequests(t *testing.T) {
	router, _ := testEnv(t, "")

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"missing library_id", `{"topic":"x"}`},
		{"invalid library_id", `{"library_id":"///"}`},
		{"refresh without sync", `{"library_id":"/a/b","refresh_repo":true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/libraries", bytes.NewReader([]byte(tc.body)))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestFetchRateLimited(t *testing.T) {
	router, _ := testEnvFull(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, nil)

	body, _ := json.Marshal(map[string]any{"library_id": "/a/b"})
	req := httptest.NewRequest(http.MethodPost, "/libraries", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router, _ := testEnvFull(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"id":"/vercel/next.js","title":"Next.js","description":"React framework"}]}`))
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/search?q=nextjs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].ID != "/vercel/next.js" {
		t.Errorf("results = %+v", resp.Results)
	}
	if resp.Formatted == "" {
		t.Error("formatted text is empty")
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestListLibraries(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/libraries", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp LibraryListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.BaseDirectory == "" || len(resp.Libraries) != 0 {
		t.Errorf("empty list = %+v", resp)
	}

	body, _ := json.Marshal(map[string]any{"library_id": "/some/lib"})
	req = httptest.NewRequest(http.MethodPost, "/libraries", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("fetch = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/libraries", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Libraries) != 1 || resp.Libraries[0].LibraryID != "/some/lib" {
		t.Errorf("libraries = %+v", resp.Libraries)
	}
}

func TestGetContentNotFound(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/libraries/nope.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing doc = %d, want 404", w.Code)
	}
}

func TestGetContentTruncated(t *testing.T) {
	router, _ := testEnvFull(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789abcdef"))
	}, nil)

	body, _ := json.Marshal(map[string]any{"library_id": "/a/b"})
	req := httptest.NewRequest(http.MethodPost, "/libraries", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	req = httptest.NewRequest(http.MethodGet, "/libraries/a_b?max_chars=10", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	var content ContentResponse
	_ = json.Unmarshal(w.Body.Bytes(), &content)
	if content.Content != "0123456789" || !content.Truncated || content.MaxChars != 10 {
		t.Errorf("content = %+v", content)
	}
}

func TestLocalSearchEndpoint(t *testing.T) {
	cache := testutil.TestDB(t)

	router, _ := testEnvFull(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("kubernetes operator patterns"))
	}, cache)

	body, _ := json.Marshal(map[string]any{"library_id": "/k8s/docs"})
	req := httptest.NewRequest(http.MethodPost, "/libraries", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	req = httptest.NewRequest(http.MethodGet, "/local-search?q=operator", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("local search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp LocalSearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].BaseName != "k8s_docs" {
		t.Errorf("results = %+v", resp.Results)
	}

	req = httptest.NewRequest(http.MethodGet, "/local-search", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("local search no query = %d, want 400", w.Code)
	}
}

func TestReconcileEndpoint(t *testing.T) {
	router, st := testEnv(t, "")

	body, _ := json.Marshal(map[string]any{"library_id": "/a/b"})
	req := httptest.NewRequest(http.MethodPost, "/libraries", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	req = httptest.NewRequest(http.MethodGet, "/index/reconcile", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("reconcile = %d", w.Code)
	}
	var resp ReconcileResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Clean {
		t.Errorf("report = %+v, want clean", resp)
	}

	if _, _, err := st.WriteDoc("stray", ".md", []byte("untracked")); err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest(http.MethodGet, "/index/reconcile", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Clean || len(resp.Untracked) != 1 {
		t.Errorf("report = %+v, want one untracked file", resp)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/libraries", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/libraries", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/libraries", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/libraries", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}
