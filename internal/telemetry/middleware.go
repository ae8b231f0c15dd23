package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetricsMeterName is the meter used for control API metrics
const HTTPMetricsMeterName = "github.com/fieldtrack/location-tracker/http"

// Route families of the control API, used as the "family" label
const (
	FamilyTracking  = "tracking"
	FamilyPosition  = "position"
	FamilyLifecycle = "lifecycle"
	FamilySystem    = "system"
	FamilyMetrics   = "metrics"
	FamilyOther     = "other"
)

// Starting a session may wait on a flush and a full initial publish, so the
// upper buckets reach past the default handler deadline
var controlLatencyBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 25, 40, 60}

// HTTPMetrics records control API traffic per route family
type HTTPMetrics struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the control API instruments.
// A nil provider yields nil metrics, whose Middleware passes requests through.
func NewHTTPMetrics(provider metric.MeterProvider) (*HTTPMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(HTTPMetricsMeterName)

	duration, err := meter.Float64Histogram(
		"location_tracker_http_request_duration_seconds",
		metric.WithDescription("Duration of control API requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(controlLatencyBuckets...),
	)
	if err != nil {
		return nil, err
	}

	requests, err := meter.Int64Counter(
		"location_tracker_http_requests_total",
		metric.WithDescription("Control API requests by route family, route, method and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	inFlight, err := meter.Int64UpDownCounter(
		"location_tracker_http_active_requests",
		metric.WithDescription("Control API requests currently being served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &HTTPMetrics{
		duration: duration,
		requests: requests,
		inFlight: inFlight,
	}, nil
}

// Middleware records one request count and duration per control API call.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithoutCancel(r.Context())
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.inFlight.Add(ctx, 1)
		defer m.inFlight.Add(ctx, -1)

		next.ServeHTTP(ww, r)

		attrs := metric.WithAttributes(requestAttributes(r, ww.Status())...)
		m.duration.Record(ctx, time.Since(started).Seconds(), attrs)
		m.requests.Add(ctx, 1, attrs)
	})
}

func requestAttributes(r *http.Request, status int) []attribute.KeyValue {
	// Handlers that never write an explicit status answer 200
	if status == 0 {
		status = http.StatusOK
	}
	route := routePattern(r)
	return []attribute.KeyValue{
		attribute.String("family", RouteFamily(route)),
		attribute.String("route", route),
		attribute.String("method", r.Method),
		attribute.String("status_code", strconv.Itoa(status)),
	}
}

// routePattern returns the matched chi pattern so path parameters stay out
// of the label values
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown_route"
}

// RouteFamily maps a control API route pattern to its family
func RouteFamily(pattern string) string {
	switch {
	case pattern == "/v1/tracking" || strings.HasPrefix(pattern, "/v1/tracking/"):
		return FamilyTracking
	case pattern == "/v1/position":
		return FamilyPosition
	case pattern == "/v1/lifecycle":
		return FamilyLifecycle
	case pattern == "/health", pattern == "/readiness", pattern == "/version":
		return FamilySystem
	case pattern == "/metrics":
		return FamilyMetrics
	default:
		return FamilyOther
	}
}

// MetricsMiddleware builds the control API metrics middleware from provider
func MetricsMiddleware(provider metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	metrics, err := NewHTTPMetrics(provider)
	if err != nil {
		return nil, err
	}
	return metrics.Middleware, nil
}
