package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/s1natex/smart-tasks/internal/insights"
	"github.com/s1natex/smart-tasks/internal/middleware"
	"github.com/s1natex/smart-tasks/internal/tasks"
	"github.com/s1natex/smart-tasks/internal/web"
)

type Deps struct {
	Store    *tasks.Store
	Insights *insights.Client
	UI       *web.Server
	Logger   *slog.Logger

	Timeout     time.Duration
	CORSOrigins []string
	Auth        middleware.AuthConfig
	// Limiter guards the JSON API; nil disables limiting.
	Limiter *rate.Limiter
}

// NewRouter wires the health and metrics endpoints, the JSON API, the HTML
// UI and the middleware stack. Routes that wait on the text-generation
// service get no request timeout; their latency is bounded by the
// transport only.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// ---- Middleware stack (order matters a bit) ----
	// RequestID first so downstream can include it (logger, spans, etc.)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Trace-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RequestLogger(d.Logger))

	timeout := func(next http.Handler) http.Handler { return next }
	if d.Timeout > 0 {
		timeout = chimw.Timeout(d.Timeout)
	}

	// ---- Routes ----
	r.Group(func(r chi.Router) {
		r.Use(timeout)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})
		r.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())
	})

	// The HTML UI is for browsers and stays open; credentials and the
	// limiter guard the JSON API.
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(d.Auth))
		r.Use(middleware.RateLimitMiddleware(d.Limiter))

		r.Group(func(r chi.Router) {
			r.Use(timeout)
			tasks.RegisterRoutes(r, d.Store)
		})
		insights.RegisterRoutes(r, d.Insights, d.Store)
	})

	if d.UI != nil {
		r.Group(func(r chi.Router) {
			r.Use(timeout)
			d.UI.Routes(r)
		})
		d.UI.ModelRoutes(r)
	}
	return r
}
