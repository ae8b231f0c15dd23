package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// TrackingMetricsMeterName is the name used for the tracking session meter
	TrackingMetricsMeterName = "github.com/fieldtrack/location-tracker/tracking"
)

// Sink names used as metric attributes
const (
	SinkEphemeral = "ephemeral"
	SinkDurable   = "durable"
)

// TrackingMetrics holds the OpenTelemetry instruments for the tracking session
type TrackingMetrics struct {
	publishTotal    metric.Int64Counter
	publishDuration metric.Float64Histogram
	livenessChecks  metric.Int64Counter
	activeSessions  metric.Int64UpDownCounter
	skippedDurable  metric.Int64Counter
}

// NewTrackingMetrics creates the tracking instruments on provider.
// If provider is nil, it returns nil (no-op metrics).
func NewTrackingMetrics(provider metric.MeterProvider) (*TrackingMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(TrackingMetricsMeterName)

	publishTotal, err := meter.Int64Counter(
		"location_tracker_publish_total",
		metric.WithDescription("Location publish attempts by sink and result"),
		metric.WithUnit("{publish}"),
	)
	if err != nil {
		return nil, err
	}

	publishDuration, err := meter.Float64Histogram(
		"location_tracker_publish_duration_seconds",
		metric.WithDescription("Duration of location publishes in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5),
	)
	if err != nil {
		return nil, err
	}

	livenessChecks, err := meter.Int64Counter(
		"location_tracker_liveness_checks_total",
		metric.WithDescription("Order liveness checks by outcome"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	activeSessions, err := meter.Int64UpDownCounter(
		"location_tracker_active_sessions",
		metric.WithDescription("Number of active tracking sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	skippedDurable, err := meter.Int64Counter(
		"location_tracker_durable_skipped_total",
		metric.WithDescription("Durable writes skipped because the agent had not moved"),
		metric.WithUnit("{publish}"),
	)
	if err != nil {
		return nil, err
	}

	return &TrackingMetrics{
		publishTotal:    publishTotal,
		publishDuration: publishDuration,
		livenessChecks:  livenessChecks,
		activeSessions:  activeSessions,
		skippedDurable:  skippedDurable,
	}, nil
}

// RecordPublish records one publish attempt to sink
func (m *TrackingMetrics) RecordPublish(ctx context.Context, sink string, duration time.Duration, success bool) {
	if m == nil || m.publishTotal == nil {
		return
	}

	result := "success"
	if !success {
		result = "failure"
	}

	m.publishTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sink", sink),
		attribute.String("result", result),
	))
	m.publishDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("sink", sink),
	))
}

// RecordDurableSkipped records a durable write skipped by the movement threshold
func (m *TrackingMetrics) RecordDurableSkipped(ctx context.Context) {
	if m == nil || m.skippedDurable == nil {
		return
	}
	m.skippedDurable.Add(ctx, 1)
}

// RecordLivenessCheck records a liveness check outcome
func (m *TrackingMetrics) RecordLivenessCheck(ctx context.Context, stillActive bool) {
	if m == nil || m.livenessChecks == nil {
		return
	}

	outcome := "active"
	if !stillActive {
		outcome = "terminal"
	}
	m.livenessChecks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// SessionStarted increments the active session gauge
func (m *TrackingMetrics) SessionStarted(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

// SessionStopped decrements the active session gauge
func (m *TrackingMetrics) SessionStopped(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}
