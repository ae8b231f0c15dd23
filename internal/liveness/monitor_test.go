package liveness_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fieldtrack/location-tracker/internal/httpclient"
	"github.com/fieldtrack/location-tracker/internal/liveness"
	"github.com/fieldtrack/location-tracker/internal/liveness/mocks"
	"github.com/fieldtrack/location-tracker/internal/location"
)

var trackedID = location.Identity{OrderID: 42, AgentID: 7, Role: location.RoleDelivery}

func TestMonitor_CheckStillActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		order *liveness.Order
		err   error
		want  bool
	}{
		{
			name:  "terminal status stops tracking",
			order: &liveness.Order{OrderID: 42, StatusCode: liveness.TerminalStatus},
			want:  false,
		},
		{
			name:  "in-progress status keeps tracking",
			order: &liveness.Order{OrderID: 42, StatusCode: 3},
			want:  true,
		},
		{
			// Intended behavior: a non-terminal status other than "active" is not a stop signal
			name:  "cancelled-looking status keeps tracking",
			order: &liveness.Order{OrderID: 42, StatusCode: 6},
			want:  true,
		},
		{
			// Intended behavior: absence of the order is not confirmation of completion
			name:  "no active order keeps tracking",
			order: nil,
			want:  true,
		},
		{
			name:  "a different order in terminal status keeps tracking",
			order: &liveness.Order{OrderID: 99, StatusCode: liveness.TerminalStatus},
			want:  true,
		},
		{
			// Intended behavior: lookup failures never end a session
			name: "query failure keeps tracking",
			err:  errors.New("backend unavailable"),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			provider := mocks.NewMockOrderProvider(ctrl)
			provider.EXPECT().
				ActiveOrder(gomock.Any(), int64(7), location.RoleDelivery).
				Return(tt.order, tt.err)

			m := liveness.NewMonitor(provider)
			assert.Equal(t, tt.want, m.CheckStillActive(context.Background(), trackedID))
		})
	}
}

func TestHTTPOrderProvider_ActiveOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		wantOrder *liveness.Order
		wantErr   bool
	}{
		{
			name:      "numeric fields",
			status:    http.StatusOK,
			body:      `{"status":"success","msg":"ok","data":{"order_id":42,"status":5}}`,
			wantOrder: &liveness.Order{OrderID: 42, StatusCode: 5},
		},
		{
			name:      "string fields",
			status:    http.StatusOK,
			body:      `{"status":"success","msg":"ok","data":{"order_id":"42","status":"3"}}`,
			wantOrder: &liveness.Order{OrderID: 42, StatusCode: 3},
		},
		{
			name:      "non-error envelope word",
			status:    http.StatusOK,
			body:      `{"status":"ok","data":{"order_id":42,"status":5}}`,
			wantOrder: &liveness.Order{OrderID: 42, StatusCode: 5},
		},
		{
			name:      "envelope without status",
			status:    http.StatusOK,
			body:      `{"data":{"order_id":42,"status":4}}`,
			wantOrder: &liveness.Order{OrderID: 42, StatusCode: 4},
		},
		{
			name:   "null data",
			status: http.StatusOK,
			body:   `{"status":"success","msg":"no active pickup","data":null}`,
		},
		{
			name:   "missing data",
			status: http.StatusOK,
			body:   `{"status":"success","msg":"no active pickup"}`,
		},
		{
			name:    "error envelope",
			status:  http.StatusOK,
			body:    `{"status":"error","msg":"user not found","data":null}`,
			wantErr: true,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `oops`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			status:  http.StatusOK,
			body:    `{"status":`,
			wantErr: true,
		},
		{
			name:    "non-numeric status",
			status:  http.StatusOK,
			body:    `{"status":"success","data":{"order_id":42,"status":"done"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotPath, gotQuery, gotKey string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotQuery = r.URL.Query().Get("user_type")
				gotKey = r.Header.Get("api-key")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			server.Config.SetKeepAlivesEnabled(false)
			defer server.Close()

			p := liveness.NewHTTPOrderProvider(httpclient.NewDefaultClient(time.Second), server.URL+"/v2/", "key-1")
			order, err := p.ActiveOrder(context.Background(), 7, location.RoleRecycler)

			assert.Equal(t, "/v2/orders/active-pickup/7", gotPath)
			assert.Equal(t, "SR", gotQuery)
			assert.Equal(t, "key-1", gotKey)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrder, order)
		})
	}
}

func TestMonitor_WithHTTPProviderFailureKeepsTracking(t *testing.T) {
	t.Parallel()

	p := liveness.NewHTTPOrderProvider(httpclient.NewDefaultClient(time.Second), "http://127.0.0.1:1", "k")
	m := liveness.NewMonitor(p)
	assert.True(t, m.CheckStillActive(context.Background(), trackedID))
}

func TestMonitor_WithHTTPProviderStopsOnTerminalOrder(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","data":{"order_id":42,"status":5}}`))
	}))
	defer server.Close()

	p := liveness.NewHTTPOrderProvider(httpclient.NewDefaultClient(time.Second), server.URL, "k")
	m := liveness.NewMonitor(p)
	assert.False(t, m.CheckStillActive(context.Background(), trackedID))
}

func TestOrderTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, liveness.Order{StatusCode: 5}.Terminal())
	assert.False(t, liveness.Order{StatusCode: 4}.Terminal())
}
