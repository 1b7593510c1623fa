// Package httptransport assembles the chi router: shared middleware, public
// routes, the admin group and the operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trustgate/internal/platform/metrics"
	ratelimit "trustgate/internal/ratelimit/middleware"
	"trustgate/pkg/platform/httputil"
	"trustgate/pkg/platform/middleware/admin"
	"trustgate/pkg/platform/middleware/metadata"
	"trustgate/pkg/platform/middleware/request"
	"trustgate/pkg/platform/middleware/requesttime"
)

// Routes is implemented by the module handlers.
type Routes interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Config struct {
	AdminToken string
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	Health   map[string]HealthCheck
	// RateLimit throttles public routes per client IP. Nil disables it.
	RateLimit *ratelimit.Middleware
}

// RouteFunc adapts a handler's registration method.
type RouteFunc func(r chi.Router)

func (f RouteFunc) Register(r chi.Router) { f(r) }

// NewRouter mounts public routes behind the IP rate limit and admin routes
// behind the admin token check.
func NewRouter(cfg Config, public []Routes, adminRoutes []Routes) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cfg.Metrics.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Group(func(r chi.Router) {
		r.Use(cfg.RateLimit.RateLimit)
		for _, routes := range public {
			routes.Register(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(cfg.AdminToken, logger))
		for _, routes := range adminRoutes {
			routes.Register(r)
		}
	})

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/health", healthHandler(cfg.Health, logger))
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "health check failed", "check", name, "error", err)
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
