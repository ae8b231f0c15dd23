// Package v0 provides the unversioned system endpoints of the control API.
package v0

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldtrack/location-tracker/internal/api/common"
	"github.com/fieldtrack/location-tracker/internal/versions"
)

// ReadinessFunc reports whether the service can accept requests
type ReadinessFunc func(ctx context.Context) error

// HealthRouter creates a router for health check endpoints
func HealthRouter(ready ReadinessFunc) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(ready))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, map[string]string{"status": "healthy"}, http.StatusOK)
}

// readinessHandler handles readiness check requests
func readinessHandler(ready ReadinessFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				common.WriteErrorResponse(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}

		common.WriteJSONResponse(w, map[string]string{"status": "ready"}, http.StatusOK)
	}
}

// versionHandler handles version information requests
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
