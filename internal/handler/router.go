package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clubrank/internal/middleware"
)

// RouterDeps bundles everything NewRouter needs.
type RouterDeps struct {
	Logger      *slog.Logger
	CORSOrigin  string
	RateLimiter *middleware.RateLimiter

	Rankings *RankingsHandler
	Auth     *AuthHandler

	MetricsGatherer prometheus.Gatherer
}

// NewRouter builds the full route table with the middleware chain
// RequestID → Logging → Recovery → CORS → RateLimit.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSOrigin))

	r.Get("/health", HandleHealth)
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Route("/rankings", func(r chi.Router) {
			r.Get("/weekly", deps.Rankings.Weekly)
			r.Get("/weekly/export", deps.Rankings.WeeklyCSV)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", deps.Auth.Login)
			r.Post("/callback", deps.Auth.Callback)
		})
	})

	return r
}
