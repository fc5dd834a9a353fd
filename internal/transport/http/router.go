// Package httptransport assembles the HTTP surface: middleware stack, page
// handlers and operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"boards/internal/platform/metrics"
	"boards/internal/transport/http/shared"
	authmw "boards/pkg/platform/middleware/auth"
	"boards/pkg/platform/middleware/metadata"
	"boards/pkg/platform/middleware/request"
	"boards/pkg/platform/middleware/requesttime"
)

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type Config struct {
	Logger        *slog.Logger
	Authenticator authmw.Authenticator
	Cookie        authmw.SessionCookie
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Health        map[string]HealthChecker
	Handlers      []Registrar

	// TrustedProxies may report the client address in forwarding headers.
	TrustedProxies metadata.TrustedProxies
}

// NewRouter builds the application router. Middleware order: request id,
// panic recovery, access log, client metadata, request time, route metrics,
// then session loading so every handler sees the caller.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(request.RequestID)
	r.Use(request.Recover(cfg.Logger))
	r.Use(request.Logger(cfg.Logger))
	r.Use(metadata.ClientMetadata(cfg.TrustedProxies))
	r.Use(requesttime.Middleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })

	r.Get("/healthz", healthHandler(cfg.Health))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(http.NewCrossOriginProtection().Handler)
		r.Use(authmw.LoadSession(cfg.Authenticator, cfg.Cookie, cfg.Logger))
		for _, h := range cfg.Handlers {
			h.Register(r)
		}
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			shared.NotFound(w, r, cfg.Logger)
		})
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for name, check := range checks {
			if err := check.Health(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(name + ": unavailable\n"))
				return
			}
		}
		_, _ = w.Write([]byte("ok\n"))
	}
}
