package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	appmw "github.com/s1natex/smart-tasks/internal/middleware"
)

func TestRateLimit(t *testing.T) {
	lim := rate.NewLimiter(0.5, 1) // one request every two seconds
	r := chi.NewRouter()
	r.Use(appmw.RateLimitMiddleware(lim))
	r.Post("/insights", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/insights", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/insights", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}
}

func TestNewLimiter_DisabledWhenZero(t *testing.T) {
	if appmw.NewLimiter(0, 5) != nil {
		t.Fatalf("expected nil limiter for rps=0")
	}
	if l := appmw.NewLimiter(2, 0); l == nil || l.Burst() != 1 {
		t.Fatalf("expected burst clamped to 1")
	}
}
