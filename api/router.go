package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jobhunterui/cvgen/core/health"
	"github.com/jobhunterui/cvgen/middleware"
	"github.com/jobhunterui/cvgen/pkg/cvgen"
	"github.com/jobhunterui/cvgen/pkg/identity"
	"github.com/jobhunterui/cvgen/pkg/quota"
)

// RouterConfig carries the dependencies the router wires together.
type RouterConfig struct {
	// Logger is used for request logging and handler errors (required).
	Logger *slog.Logger

	// Generator produces CVs for the generation endpoint (required).
	Generator cvgen.Generator

	// Policy enforces per-client daily quotas (required).
	Policy *quota.Policy

	// Resolver derives client identity; defaults follow identity.NewResolver.
	Resolver *identity.Resolver

	// AllowOrigins configures CORS; empty allows all origins.
	AllowOrigins []string

	// Registry hosts service metrics and backs the scrape endpoint
	// (default: a fresh registry).
	Registry *prometheus.Registry

	// ReadinessChecks gate the readiness probe, e.g. a store healthcheck.
	ReadinessChecks []func(context.Context) error
}

// NewRouter assembles the service's HTTP handler. Request ID, logging, and
// CORS wrap everything; admission wraps the generation endpoint only so
// health probes and metrics scrapes never consume quota.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	metrics := middleware.NewQuotaMetrics(cfg.Registry)

	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "X-Client-ID", "X-Subscription-Tier"},
	}))

	r.Route("/api/v1/cv", func(r chi.Router) {
		r.Use(middleware.Quota(middleware.QuotaConfig{
			Policy:   cfg.Policy,
			Resolver: cfg.Resolver,
			Logger:   cfg.Logger,
			Metrics:  metrics,
		}))
		r.Post("/generate", GenerateCV(cfg.Generator, cfg.Logger))
	})

	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness(cfg.Logger, cfg.ReadinessChecks...))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	return r
}
