package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/fieldtrack/location-tracker/internal/httpclient"
	"github.com/fieldtrack/location-tracker/internal/location"
)

const (
	// DefaultTTL keeps a record alive for 24 ephemeral intervals at the default cadence
	DefaultTTL = 2 * time.Hour
)

// OrderKey returns the ephemeral store key holding the latest position for an order.
func OrderKey(orderID int64) string {
	return fmt.Sprintf("location:order:%d", orderID)
}

// AgentKey returns the ephemeral store key holding the latest position for an agent.
func AgentKey(agentID int64, role location.Role) string {
	return fmt.Sprintf("location:agent:%d:role:%s", agentID, role)
}

// EphemeralConfig configures the ephemeral store connection
type EphemeralConfig struct {
	// URL is the REST endpoint accepting Redis commands as JSON arrays
	URL string
	// Token is sent as a bearer token
	Token string
	// TTL is the expiry applied to both keys
	TTL time.Duration
}

// Ephemeral publishes samples to a Redis-compatible REST endpoint using
// SET key value EX ttl commands.
type Ephemeral struct {
	client httpclient.Client
	url    string
	token  string
	ttl    time.Duration
}

// NewEphemeral creates an ephemeral publisher.
func NewEphemeral(client httpclient.Client, cfg EphemeralConfig) *Ephemeral {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Ephemeral{
		client: client,
		url:    cfg.URL,
		token:  cfg.Token,
		ttl:    ttl,
	}
}

// PublishEphemeral implements EphemeralPublisher.
func (e *Ephemeral) PublishEphemeral(ctx context.Context, sample location.Sample) bool {
	if e.url == "" || e.token == "" {
		slog.Warn("Ephemeral store credentials not configured, skipping publish",
			"order_id", sample.OrderID)
		return false
	}

	value, err := json.Marshal(sample)
	if err != nil {
		slog.Warn("Failed to encode ephemeral sample", "order_id", sample.OrderID, "error", err)
		return false
	}

	orderErr := e.set(ctx, OrderKey(sample.OrderID), value)
	if orderErr != nil {
		slog.Warn("Ephemeral order-keyed write failed",
			"order_id", sample.OrderID,
			"error", orderErr)
	}

	// Consumers look positions up by order, so the agent key is best-effort
	if err := e.set(ctx, AgentKey(sample.AgentID, sample.AgentRole), value); err != nil {
		slog.Warn("Ephemeral agent-keyed write failed",
			"agent_id", sample.AgentID,
			"role", string(sample.AgentRole),
			"error", err)
	}

	if orderErr != nil {
		return false
	}

	slog.Debug("Published ephemeral location",
		"order_id", sample.OrderID,
		"agent_id", sample.AgentID,
		"latitude", sample.Latitude,
		"longitude", sample.Longitude)
	return true
}

func (e *Ephemeral) set(ctx context.Context, key string, value []byte) error {
	command := []string{"SET", key, string(value), "EX", strconv.Itoa(int(e.ttl.Seconds()))}

	body, err := e.client.PostJSON(ctx, e.url, command, httpclient.WithBearerToken(e.token))
	if err != nil {
		return fmt.Errorf("SET %s: %w", key, err)
	}

	if msg := gjson.GetBytes(body, "error"); msg.Exists() {
		return fmt.Errorf("SET %s: store error: %s", key, msg.String())
	}
	if result := gjson.GetBytes(body, "result"); result.String() != "OK" {
		return fmt.Errorf("SET %s: unexpected result %q", key, result.Raw)
	}
	return nil
}
