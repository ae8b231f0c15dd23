package publisher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldtrack/location-tracker/internal/httpclient"
	"github.com/fieldtrack/location-tracker/internal/location"
)

// fakeStore is an httptest handler speaking the Redis REST dialect.
type fakeStore struct {
	mu       sync.Mutex
	commands [][]string
	auth     []string
	// respond returns the status and body for a command
	respond func(cmd []string) (int, string)
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var cmd []string
	_ = json.Unmarshal(raw, &cmd)

	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	respond := f.respond
	f.mu.Unlock()

	status, body := http.StatusOK, `{"result":"OK"}`
	if respond != nil {
		status, body = respond(cmd)
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakeStore) recorded() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.commands...)
}

func newStoreServer(t *testing.T, store *fakeStore) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(store)
	server.Config.SetKeepAlivesEnabled(false)
	t.Cleanup(server.Close)
	return server
}

func testSample() location.Sample {
	return location.NewSample(
		location.Identity{OrderID: 42, AgentID: 7, Role: location.RoleDelivery},
		location.Coordinates{Latitude: 12.97, Longitude: 77.59},
		time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	)
}

func TestKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "location:order:42", OrderKey(42))
	assert.Equal(t, "location:agent:7:role:SR", AgentKey(7, location.RoleRecycler))
}

func TestEphemeral_PublishWritesBothKeys(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	server := newStoreServer(t, store)

	pub := NewEphemeral(httpclient.NewDefaultClient(time.Second), EphemeralConfig{
		URL:   server.URL,
		Token: "token-abc",
		TTL:   2 * time.Hour,
	})

	require.True(t, pub.PublishEphemeral(context.Background(), testSample()))

	cmds := store.recorded()
	require.Len(t, cmds, 2)

	keys := []string{cmds[0][1], cmds[1][1]}
	assert.ElementsMatch(t, []string{"location:order:42", "location:agent:7:role:D"}, keys)

	for _, cmd := range cmds {
		require.Len(t, cmd, 5)
		assert.Equal(t, "SET", cmd[0])
		assert.Equal(t, "EX", cmd[3])
		assert.Equal(t, "7200", cmd[4])

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(cmd[2]), &payload))
		assert.Equal(t, float64(42), payload["orderId"])
		assert.Equal(t, float64(7), payload["agentId"])
		assert.Equal(t, "D", payload["agentRole"])
		assert.Equal(t, 12.97, payload["latitude"])
		assert.Equal(t, 77.59, payload["longitude"])
		assert.Equal(t, "2025-03-01T10:00:00Z", payload["timestamp"])
	}
	assert.Equal(t, cmds[0][2], cmds[1][2], "both keys carry the same payload")

	store.mu.Lock()
	defer store.mu.Unlock()
	for _, a := range store.auth {
		assert.Equal(t, "Bearer token-abc", a)
	}
}

func TestEphemeral_PublishOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		respond func(cmd []string) (int, string)
		want    bool
	}{
		{
			name:    "both writes succeed",
			respond: nil,
			want:    true,
		},
		{
			name: "agent write fails",
			respond: func(cmd []string) (int, string) {
				if cmd[1] == AgentKey(7, location.RoleDelivery) {
					return http.StatusInternalServerError, `{"error":"boom"}`
				}
				return http.StatusOK, `{"result":"OK"}`
			},
			want: true,
		},
		{
			name: "order write fails",
			respond: func(cmd []string) (int, string) {
				if cmd[1] == OrderKey(42) {
					return http.StatusServiceUnavailable, ``
				}
				return http.StatusOK, `{"result":"OK"}`
			},
			want: false,
		},
		{
			name: "store reports an error with 200",
			respond: func(_ []string) (int, string) {
				return http.StatusOK, `{"error":"WRONGPASS invalid password"}`
			},
			want: false,
		},
		{
			name: "unexpected result",
			respond: func(_ []string) (int, string) {
				return http.StatusOK, `{"result":null}`
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeStore{respond: tt.respond}
			server := newStoreServer(t, store)
			pub := NewEphemeral(httpclient.NewDefaultClient(time.Second), EphemeralConfig{URL: server.URL, Token: "t"})

			assert.Equal(t, tt.want, pub.PublishEphemeral(context.Background(), testSample()))
			assert.Len(t, store.recorded(), 2, "both writes are always attempted")
		})
	}
}

func TestEphemeral_MissingCredentials(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	server := newStoreServer(t, store)

	noToken := NewEphemeral(httpclient.NewDefaultClient(time.Second), EphemeralConfig{URL: server.URL})
	assert.False(t, noToken.PublishEphemeral(context.Background(), testSample()))

	noURL := NewEphemeral(httpclient.NewDefaultClient(time.Second), EphemeralConfig{Token: "t"})
	assert.False(t, noURL.PublishEphemeral(context.Background(), testSample()))

	assert.Empty(t, store.recorded())
}

func TestEphemeral_TransportFailure(t *testing.T) {
	t.Parallel()

	pub := NewEphemeral(httpclient.NewDefaultClient(time.Second), EphemeralConfig{
		URL:   "http://127.0.0.1:1",
		Token: "t",
	})
	assert.False(t, pub.PublishEphemeral(context.Background(), testSample()))
}

func TestEphemeral_DefaultTTL(t *testing.T) {
	t.Parallel()

	pub := NewEphemeral(nil, EphemeralConfig{})
	assert.Equal(t, DefaultTTL, pub.ttl)
}
