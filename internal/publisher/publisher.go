// Package publisher writes location samples to the two sinks a tracking
// session feeds: a TTL-bearing ephemeral key-value store for live map
// lookups, and the durable backend that keeps the location history.
//
// Both publishers report success as a boolean. Transport, encoding and
// validation errors are logged at the publisher boundary and never returned,
// so a failed write simply waits for the next tick.
package publisher

import (
	"context"

	"github.com/fieldtrack/location-tracker/internal/location"
)

// EphemeralPublisher writes the latest sample to the ephemeral store
//
//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks -source=publisher.go EphemeralPublisher,DurablePublisher
type EphemeralPublisher interface {
	// PublishEphemeral writes the sample under its order and agent keys and
	// reports whether the order-keyed write succeeded
	PublishEphemeral(ctx context.Context, sample location.Sample) bool
}

// DurablePublisher writes a sample to the authoritative backend
type DurablePublisher interface {
	// PublishDurable validates and saves the sample, reporting success
	PublishDurable(ctx context.Context, sample location.Sample) bool
}
