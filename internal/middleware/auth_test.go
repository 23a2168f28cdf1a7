package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	appmw "github.com/s1natex/smart-tasks/internal/middleware"
)

func serve(r http.Handler, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuth_APIKey(t *testing.T) {
	r := chi.NewRouter()
	r.Use(appmw.AuthMiddleware(appmw.AuthConfig{
		Mode:   appmw.AuthAPIKey,
		APIKey: "secret123",
	}))
	r.Get("/api/tasks", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	rec := serve(r, "GET", "/api/tasks", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("expected WWW-Authenticate challenge")
	}

	rec = serve(r, "GET", "/api/tasks", map[string]string{"X-API-Key": "secret123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", rec.Code)
	}
}

func TestAuth_Bearer(t *testing.T) {
	r := chi.NewRouter()
	r.Use(appmw.AuthMiddleware(appmw.AuthConfig{
		Mode:        appmw.AuthBearer,
		BearerToken: "tok_abc",
	}))
	r.Get("/api/tasks", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	if rec := serve(r, "GET", "/api/tasks", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec := serve(r, "GET", "/api/tasks", map[string]string{"Authorization": "Bearer wrong"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rec.Code)
	}
	if rec := serve(r, "GET", "/api/tasks", map[string]string{"Authorization": "Bearer tok_abc"}); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with bearer, got %d", rec.Code)
	}
}

func TestAuth_EmptySecretNeverMatches(t *testing.T) {
	r := chi.NewRouter()
	r.Use(appmw.AuthMiddleware(appmw.AuthConfig{Mode: appmw.AuthAPIKey}))
	r.Get("/api/tasks", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	if rec := serve(r, "GET", "/api/tasks", map[string]string{"X-API-Key": ""}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestParseAuthMode(t *testing.T) {
	for in, want := range map[string]appmw.AuthMode{"": appmw.AuthNone, "APIKEY": appmw.AuthAPIKey, "bearer": appmw.AuthBearer} {
		got, err := appmw.ParseAuthMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseAuthMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := appmw.ParseAuthMode("basic"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
