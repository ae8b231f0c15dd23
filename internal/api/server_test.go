package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/fieldtrack/location-tracker/internal/api"
	"github.com/fieldtrack/location-tracker/internal/lifecycle"
	"github.com/fieldtrack/location-tracker/internal/location"
	"github.com/fieldtrack/location-tracker/internal/position"
	"github.com/fieldtrack/location-tracker/internal/tracking"
)

type countingSink struct {
	ephemeral chan location.Sample
}

func (c *countingSink) PublishEphemeral(_ context.Context, s location.Sample) bool {
	select {
	case c.ephemeral <- s:
	default:
	}
	return true
}

func (*countingSink) PublishDurable(context.Context, location.Sample) bool { return true }

type alwaysActive struct{}

func (alwaysActive) CheckStillActive(context.Context, location.Identity) bool { return true }

func newTestServer(t *testing.T) (http.Handler, *tracking.Session, *countingSink) {
	t.Helper()

	fixes := position.NewLatestFix()
	broadcaster := lifecycle.NewBroadcaster(lifecycle.Foreground)
	sink := &countingSink{ephemeral: make(chan location.Sample, 16)}
	session := tracking.New(fixes, sink, sink, alwaysActive{},
		tracking.WithClock(clocktesting.NewFakeClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))),
		tracking.WithLifecycle(broadcaster))
	t.Cleanup(session.Stop)

	server := api.NewServer(session,
		api.WithMiddlewares(middleware.RequestID, middleware.Recoverer, api.LoggingMiddleware),
		api.WithFixRecorder(fixes),
		api.WithLifecycle(broadcaster),
		api.WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		})),
	)
	return server, session, sink
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rr
}

func TestServer_TrackingFlow(t *testing.T) {
	t.Parallel()

	server, session, sink := newTestServer(t)

	rr := serve(t, server, http.MethodPost, "/v1/position", `{"latitude":12.97,"longitude":77.59}`)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = serve(t, server, http.MethodPost, "/v1/tracking/start", `{"order_id":42,"agent_id":7,"agent_role":"D"}`)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	var status tracking.Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.True(t, status.Active)
	require.NotNil(t, status.Identity)
	assert.Equal(t, int64(42), status.Identity.OrderID)
	require.NotNil(t, status.LastPublished)
	assert.Equal(t, location.Coordinates{Latitude: 12.97, Longitude: 77.59}, *status.LastPublished)

	select {
	case s := <-sink.ephemeral:
		assert.Equal(t, int64(42), s.OrderID)
	default:
		t.Fatal("expected the initial ephemeral publish")
	}

	rr = serve(t, server, http.MethodPost, "/v1/lifecycle", `{"state":"background"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Eventually(t, func() bool { return session.Status().Backgrounded }, 2*time.Second, 5*time.Millisecond)

	rr = serve(t, server, http.MethodPost, "/v1/tracking/stop", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, session.Active())
}

func TestServer_InvalidStartIsBadRequest(t *testing.T) {
	t.Parallel()

	server, session, _ := newTestServer(t)

	rr := serve(t, server, http.MethodPost, "/v1/tracking/start", `{"order_id":0,"agent_id":7,"agent_role":"D"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, session.Active())
}

func TestServer_SystemRoutes(t *testing.T) {
	t.Parallel()

	server, _, _ := newTestServer(t)

	tests := []struct {
		path           string
		expectedStatus int
	}{
		{path: "/health", expectedStatus: http.StatusOK},
		{path: "/readiness", expectedStatus: http.StatusOK},
		{path: "/version", expectedStatus: http.StatusOK},
		{path: "/metrics", expectedStatus: http.StatusOK},
		{path: "/v1/tracking/status", expectedStatus: http.StatusOK},
		{path: "/nope", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			rr := serve(t, server, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
