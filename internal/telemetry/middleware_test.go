package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewHTTPMetrics(t *testing.T) {
	t.Parallel()

	metrics, err := NewHTTPMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)

	mp := sdkmetric.NewMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err = NewHTTPMetrics(mp)
	require.NoError(t, err)
	require.NotNil(t, metrics)
	assert.NotNil(t, metrics.duration)
	assert.NotNil(t, metrics.requests)
	assert.NotNil(t, metrics.inFlight)
}

func TestHTTPMetrics_NilPassThrough(t *testing.T) {
	t.Parallel()

	var metrics *HTTPMetrics
	wrapped := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/tracking/start", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestHTTPMetrics_LabelsControlRoutes(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	mw, err := MetricsMiddleware(mp)
	require.NoError(t, err)

	v1 := chi.NewRouter()
	v1.Route("/tracking", func(r chi.Router) {
		r.Post("/start", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadRequest) })
	})
	v1.Post("/position", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	v1.Post("/lifecycle", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Mount("/v1", v1)

	for _, req := range []struct{ method, path string }{
		{http.MethodPost, "/v1/tracking/start"},
		{http.MethodPost, "/v1/position"},
		{http.MethodPost, "/v1/position"},
		{http.MethodPost, "/v1/lifecycle"},
		{http.MethodGet, "/health"},
	} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(req.method, req.path, nil))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	type key struct{ family, route, status string }
	got := map[key]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "location_tracker_http_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				family, _ := dp.Attributes.Value(attribute.Key("family"))
				route, _ := dp.Attributes.Value(attribute.Key("route"))
				status, _ := dp.Attributes.Value(attribute.Key("status_code"))
				got[key{family.AsString(), route.AsString(), status.AsString()}] += dp.Value
			}
		}
	}

	assert.Equal(t, map[key]int64{
		{FamilyTracking, "/v1/tracking/start", "400"}: 1,
		{FamilyPosition, "/v1/position", "204"}:       2,
		{FamilyLifecycle, "/v1/lifecycle", "204"}:     1,
		{FamilySystem, "/health", "200"}:              1,
	}, got)
}

func TestRouteFamily(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		want    string
	}{
		{"/v1/tracking/start", FamilyTracking},
		{"/v1/tracking/stop", FamilyTracking},
		{"/v1/tracking/status", FamilyTracking},
		{"/v1/trackingx", FamilyOther},
		{"/v1/position", FamilyPosition},
		{"/v1/lifecycle", FamilyLifecycle},
		{"/health", FamilySystem},
		{"/readiness", FamilySystem},
		{"/version", FamilySystem},
		{"/metrics", FamilyMetrics},
		{"unknown_route", FamilyOther},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RouteFamily(tt.pattern))
		})
	}
}

func TestMetricsMiddleware_NoopProvider(t *testing.T) {
	t.Parallel()

	mw, err := MetricsMiddleware(noop.NewMeterProvider())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRoutePattern_Unknown(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unknown_route", routePattern(httptest.NewRequest(http.MethodGet, "/x", nil)))
}
