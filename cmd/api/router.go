package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/pocketledger/pocketledger/pkg/httputil"
	"github.com/pocketledger/pocketledger/pkg/tracing"
)

// NewRouter assembles the HTTP surface: public health endpoints plus the
// authenticated /api/v1 routes.
func NewRouter(deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(tracing.Middleware(otel.GetTracerProvider()))
	r.Use(deps.Metrics.Middleware)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   deps.Config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)
	r.Use(rateLimiter(deps))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.Pool.Ping(r.Context()); err != nil {
			httputil.WriteError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.Verifier.Middleware)

		deps.AccountHandler.RegisterRoutes(r)
		deps.CategoryHandler.RegisterRoutes(r)
		deps.TransactionHandler.RegisterRoutes(r)
		deps.SummaryHandler.RegisterRoutes(r)
		deps.ImportHandler.RegisterRoutes(r)
	})

	return r
}

// rateLimiter applies a process-wide token bucket. Per-client fairness is the
// load balancer's problem; this only protects the database.
func rateLimiter(deps *Dependencies) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(
		rate.Limit(deps.Config.Server.RateLimitPerSecond),
		deps.Config.Server.RateLimitBurst,
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				httputil.WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
