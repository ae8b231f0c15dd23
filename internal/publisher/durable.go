package publisher

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fieldtrack/location-tracker/internal/httpclient"
	"github.com/fieldtrack/location-tracker/internal/location"
)

const (
	// UpdatePath is appended to the backend base URL for location writes
	UpdatePath = "/location/update"
)

// DurableConfig configures the durable backend connection
type DurableConfig struct {
	// BaseURL is the backend API root, without the update path
	BaseURL string
	// APIKey is sent in the api-key header
	APIKey string
}

type updateRequest struct {
	AgentID   int64   `json:"agent_id"`
	AgentRole string  `json:"agent_role"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	OrderID   int64   `json:"order_id"`
}

// Durable publishes samples to the backend location history endpoint.
type Durable struct {
	client httpclient.Client
	url    string
	apiKey string
}

// NewDurable creates a durable publisher.
func NewDurable(client httpclient.Client, cfg DurableConfig) *Durable {
	return &Durable{
		client: client,
		url:    strings.TrimSuffix(cfg.BaseURL, "/") + UpdatePath,
		apiKey: cfg.APIKey,
	}
}

// PublishDurable implements DurablePublisher. Invalid samples are rejected
// before any request is made.
func (d *Durable) PublishDurable(ctx context.Context, sample location.Sample) bool {
	if err := sample.Validate(); err != nil {
		slog.Warn("Rejecting invalid durable sample",
			"order_id", sample.OrderID,
			"agent_id", sample.AgentID,
			"error", err)
		return false
	}

	req := updateRequest{
		AgentID:   sample.AgentID,
		AgentRole: string(sample.AgentRole),
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		OrderID:   sample.OrderID,
	}

	if _, err := d.client.PostJSON(ctx, d.url, req, httpclient.WithHeader("api-key", d.apiKey)); err != nil {
		slog.Warn("Durable location write failed",
			"order_id", sample.OrderID,
			"status_code", httpclient.StatusCode(err),
			"error", err)
		return false
	}

	slog.Debug("Saved durable location",
		"order_id", sample.OrderID,
		"agent_id", sample.AgentID)
	return true
}
