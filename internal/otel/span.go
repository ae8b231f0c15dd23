// Package otel provides span helpers shared by the tracking session and the control API.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fieldtrack/location-tracker/internal/location"
)

// Attribute keys for tracking spans.
const (
	AttrOrderID   = attribute.Key("order.id")
	AttrAgentID   = attribute.Key("agent.id")
	AttrAgentRole = attribute.Key("agent.role")
	AttrRunID     = attribute.Key("session.run_id")
	AttrTickKind  = attribute.Key("tick.kind")
	AttrSink      = attribute.Key("publish.sink")
	AttrMoved     = attribute.Key("position.moved")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns a no-op span.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// IdentityAttributes returns the span attributes describing a tracking identity.
func IdentityAttributes(id location.Identity) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrOrderID.Int64(id.OrderID),
		AttrAgentID.Int64(id.AgentID),
		AttrAgentRole.String(string(id.Role)),
	}
}

// RecordError records an error on a span and sets the span status to error.
// The status description stays generic so backend URLs and tokens never land
// in span status; the full error is kept on the exception event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
