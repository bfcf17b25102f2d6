package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/readmeter/readmeter/internal/config"
	"github.com/readmeter/readmeter/internal/stats"
	"github.com/readmeter/readmeter/internal/store"
)

const testAPIKey = "test-key"

func newTestServer() *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		Port:           "0",
		APIKey:         testAPIKey,
		MaxUploadBytes: 1 << 20,
		ArticleTTL:     time.Hour,
		StatsWindow:    time.Hour,
	}
	return NewServer(store.New(cfg.ArticleTTL), stats.New(cfg.StatsWindow), log, cfg)
}

func doJSON(t *testing.T, srv *Server, req *http.Request) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	var body map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid json response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, body
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return req
}

func TestHealthIsPublic(t *testing.T) {
	srv := newTestServer()
	code, body := doJSON(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestAnalyzeRequiresAuth(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("hello"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("hello"))
	req.Header.Set("Authorization", "Bearer wrong-key")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", rec.Code)
	}

	// Rejections use the same JSON error shape as the handlers.
	var errBody map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &errBody); err != nil {
		t.Fatalf("auth rejection is not json: %q", rec.Body.String())
	}
	if errBody["error"] != "invalid api key" {
		t.Errorf("unexpected error message: %v", errBody)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %q", ct)
	}
}

func TestAnalyzeRawBody(t *testing.T) {
	srv := newTestServer()
	req := authed(httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("hello world")))
	code, body := doJSON(t, srv, req)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, body)
	}

	analysis, ok := body["analysis"].(map[string]any)
	if !ok {
		t.Fatalf("missing analysis in response: %v", body)
	}
	if analysis["word_count"] != float64(2) {
		t.Errorf("expected word_count=2, got %v", analysis["word_count"])
	}
	if analysis["reading_time"] != "1 minute read" {
		t.Errorf("expected %q, got %v", "1 minute read", analysis["reading_time"])
	}
}

func TestAnalyzeMarkdownUpload(t *testing.T) {
	srv := newTestServer()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "post.md")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("---\ntitle: Hello\ntags: [go]\n---\n\n# Hello\n\nSome body text here.\n"))
	mw.Close()

	req := authed(httptest.NewRequest(http.MethodPost, "/api/analyze", &buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	code, body := doJSON(t, srv, req)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, body)
	}
	if body["title"] != "Hello" {
		t.Errorf("expected frontmatter title, got %v", body["title"])
	}

	// The analyzed article is retrievable.
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("missing article id in response: %v", body)
	}
	code, got := doJSON(t, srv, authed(httptest.NewRequest(http.MethodGet, "/api/articles/"+id, nil)))
	if code != http.StatusOK {
		t.Fatalf("expected 200 on get, got %d", code)
	}
	if got["title"] != "Hello" {
		t.Errorf("expected stored title, got %v", got["title"])
	}
}

func TestAnalyzeRejectsUnsupportedType(t *testing.T) {
	srv := newTestServer()
	req := authed(httptest.NewRequest(http.MethodPost, "/api/analyze?filename=data.csv", strings.NewReader("a,b")))
	code, body := doJSON(t, srv, req)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", code, body)
	}
}

func TestBatchAnalyze(t *testing.T) {
	srv := newTestServer()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range []struct{ name, content string }{
		{"one.txt", "first article body"},
		{"two.md", "# Two\n\nsecond article body"},
		{"bad.csv", "a,b"},
	} {
		fw, err := mw.CreateFormFile("files", f.name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(f.content))
	}
	mw.Close()

	req := authed(httptest.NewRequest(http.MethodPost, "/api/analyze/batch", &buf))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	code, body := doJSON(t, srv, req)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, body)
	}

	results, ok := body["articles"].([]any)
	if !ok || len(results) != 3 {
		t.Fatalf("expected 3 results, got %v", body["articles"])
	}
	last := results[2].(map[string]any)
	if last["error"] == nil {
		t.Errorf("expected error for unsupported csv, got %v", last)
	}
}

func TestListAndDeleteArticles(t *testing.T) {
	srv := newTestServer()

	req := authed(httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("some text")))
	code, body := doJSON(t, srv, req)
	if code != http.StatusOK {
		t.Fatalf("analyze failed: %d %v", code, body)
	}
	id := body["id"].(string)

	code, list := doJSON(t, srv, authed(httptest.NewRequest(http.MethodGet, "/api/articles", nil)))
	if code != http.StatusOK {
		t.Fatalf("expected 200 on list, got %d", code)
	}
	if list["count"] != float64(1) {
		t.Errorf("expected count=1, got %v", list["count"])
	}

	code, _ = doJSON(t, srv, authed(httptest.NewRequest(http.MethodDelete, "/api/articles/"+id, nil)))
	if code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", code)
	}
	code, _ = doJSON(t, srv, authed(httptest.NewRequest(http.MethodDelete, "/api/articles/"+id, nil)))
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer()

	req := authed(httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("hello world")))
	if code, body := doJSON(t, srv, req); code != http.StatusOK {
		t.Fatalf("analyze failed: %d %v", code, body)
	}

	code, body := doJSON(t, srv, authed(httptest.NewRequest(http.MethodGet, "/api/stats", nil)))
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	snap, ok := body["stats"].(map[string]any)
	if !ok {
		t.Fatalf("missing stats: %v", body)
	}
	if snap["count"] != float64(1) {
		t.Errorf("expected count=1, got %v", snap["count"])
	}
}
