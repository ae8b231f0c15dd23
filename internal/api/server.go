// Package api provides the control API server for the location tracker.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fieldtrack/location-tracker/internal/api/common"
	v0 "github.com/fieldtrack/location-tracker/internal/api/v0"
	v1 "github.com/fieldtrack/location-tracker/internal/api/v1"
	"github.com/fieldtrack/location-tracker/internal/lifecycle"
)

// ServerOption configures the control API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	metricsHandler http.Handler
	readiness      v0.ReadinessFunc
	fixes          v1.FixRecorder
	lifecycle      *lifecycle.Broadcaster
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler serves h on /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// WithReadiness sets the check behind /readiness
func WithReadiness(ready v0.ReadinessFunc) ServerOption {
	return func(cfg *serverConfig) {
		cfg.readiness = ready
	}
}

// WithFixRecorder accepts device position fixes on /v1/position
func WithFixRecorder(fixes v1.FixRecorder) ServerOption {
	return func(cfg *serverConfig) {
		cfg.fixes = fixes
	}
}

// WithLifecycle accepts foreground/background signals on /v1/lifecycle
func WithLifecycle(b *lifecycle.Broadcaster) ServerOption {
	return func(cfg *serverConfig) {
		cfg.lifecycle = b
	}
}

// NewServer creates and configures the HTTP router around the tracking session
func NewServer(tracker v1.Tracker, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()

	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	// Mount health check routes directly at root
	r.Mount("/", v0.HealthRouter(cfg.readiness))

	if cfg.metricsHandler != nil {
		r.Handle("/metrics", cfg.metricsHandler)
	}

	r.Mount("/v1", v1.Router(tracker, cfg.fixes, cfg.lifecycle))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.WriteErrorResponse(w, "not found", http.StatusNotFound)
	})

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.DebugContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
