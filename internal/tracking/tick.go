package tracking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/fieldtrack/location-tracker/internal/geo"
	"github.com/fieldtrack/location-tracker/internal/location"
	"github.com/fieldtrack/location-tracker/internal/otel"
	"github.com/fieldtrack/location-tracker/internal/telemetry"
)

type tickKind string

const (
	tickInitial    tickKind = "initial"
	tickEphemeral  tickKind = "ephemeral"
	tickDurable    tickKind = "durable"
	tickForeground tickKind = "foreground"
	tickLiveness   tickKind = "liveness"
	tickStop       tickKind = "stop"
)

const (
	flushMaxTries        = 3
	flushInitialInterval = 200 * time.Millisecond
)

var errFlushFailed = errors.New("ephemeral refresh failed")

func (s *Session) startTick(ctx context.Context, r *run, kind tickKind) (context.Context, trace.Span) {
	attrs := append(otel.IdentityAttributes(r.identity),
		otel.AttrRunID.String(r.id),
		otel.AttrTickKind.String(string(kind)),
	)
	return otel.StartSpan(ctx, s.tracer, "tracking.tick", trace.WithAttributes(attrs...))
}

// sample reads the current position, bounded by the call timeout.
// The bool is false when no valid position is available.
func (s *Session) sample(ctx context.Context, r *run) (location.Coordinates, bool) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	c, err := s.source.CurrentPosition(callCtx)
	if err != nil {
		slog.Warn("Could not obtain current position", "run_id", r.id, "error", err)
		return location.Coordinates{}, false
	}
	if err := location.ValidateCoordinates(c); err != nil {
		slog.Warn("Position source returned invalid coordinates", "run_id", r.id, "error", err)
		return location.Coordinates{}, false
	}
	return c, true
}

func (s *Session) publishEphemeral(ctx context.Context, r *run, c location.Coordinates) bool {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	started := s.clock.Now()
	ok := s.ephemeral.PublishEphemeral(callCtx, location.NewSample(r.identity, c, started))
	s.metrics.RecordPublish(ctx, telemetry.SinkEphemeral, s.clock.Since(started), ok)
	return ok
}

func (s *Session) publishDurable(ctx context.Context, r *run, c location.Coordinates) bool {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	started := s.clock.Now()
	ok := s.durable.PublishDurable(callCtx, location.NewSample(r.identity, c, started))
	s.metrics.RecordPublish(ctx, telemetry.SinkDurable, s.clock.Since(started), ok)
	return ok
}

// setLastPublished records c as the last position accepted by the
// ephemeral store, if r is still current
func (s *Session) setLastPublished(r *run, c location.Coordinates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == r {
		s.lastPublished = &c
	}
}

func (s *Session) recordDurableSave(r *run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == r {
		s.lastDurableSave = s.clock.Now()
	}
}

func (s *Session) lastPublishedPosition() *location.Coordinates {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastPublished == nil {
		return nil
	}
	c := *s.lastPublished
	return &c
}

// publishInitial writes the first sample of a run to both sinks without
// consulting the movement threshold
func (s *Session) publishInitial(ctx context.Context, r *run) {
	ctx, span := s.startTick(ctx, r, tickInitial)
	defer span.End()

	c, ok := s.sample(ctx, r)
	if !ok {
		slog.Warn("Skipping initial publish, no position available",
			"run_id", r.id,
			"order_id", r.identity.OrderID)
		return
	}
	if !s.isCurrent(ctx, r) {
		return
	}

	if !s.publishEphemeral(ctx, r, c) {
		slog.Warn("Initial ephemeral publish failed", "run_id", r.id, "order_id", r.identity.OrderID)
	}
	s.setLastPublished(r, c)
	if !s.isCurrent(ctx, r) {
		return
	}

	if s.publishDurable(ctx, r, c) {
		s.recordDurableSave(r)
	}
}

// refreshEphemeral publishes c, or the last published position when c is
// nil or its publish fails, so the live record never expires while the
// session runs
func (s *Session) refreshEphemeral(ctx context.Context, r *run, c *location.Coordinates) {
	if c != nil {
		if s.publishEphemeral(ctx, r, *c) {
			s.setLastPublished(r, *c)
			return
		}
		slog.Warn("Ephemeral publish failed, refreshing last published position",
			"run_id", r.id,
			"order_id", r.identity.OrderID)
		if !s.isCurrent(ctx, r) {
			return
		}
	}

	last := s.lastPublishedPosition()
	if last == nil {
		slog.Debug("No previously published position to refresh", "run_id", r.id)
		return
	}
	s.publishEphemeral(ctx, r, *last)
}

func (s *Session) ephemeralTick(ctx context.Context, r *run) {
	ctx, span := s.startTick(ctx, r, tickEphemeral)
	defer span.End()

	c, ok := s.sample(ctx, r)
	if !s.isCurrent(ctx, r) {
		return
	}
	if !ok {
		s.refreshEphemeral(ctx, r, nil)
		return
	}
	s.refreshEphemeral(ctx, r, &c)
}

// durableTick refreshes the live record and saves to the durable backend
// when the agent moved beyond the threshold since the last published
// position, which ephemeral ticks also advance.
// Foreground transitions run the same policy out of cycle.
func (s *Session) durableTick(ctx context.Context, r *run, kind tickKind) {
	ctx, span := s.startTick(ctx, r, kind)
	defer span.End()

	c, ok := s.sample(ctx, r)
	if !s.isCurrent(ctx, r) {
		return
	}
	if !ok {
		s.refreshEphemeral(ctx, r, nil)
		return
	}

	moved := geo.HasMovedSignificantly(c, s.lastPublishedPosition(), s.threshold)
	span.SetAttributes(otel.AttrMoved.Bool(moved))

	s.refreshEphemeral(ctx, r, &c)
	if !s.isCurrent(ctx, r) {
		return
	}

	if !moved {
		slog.Debug("Skipping durable save, agent has not moved significantly",
			"run_id", r.id,
			"order_id", r.identity.OrderID,
			"threshold_meters", s.threshold)
		s.metrics.RecordDurableSkipped(ctx)
		return
	}

	if s.publishDurable(ctx, r, c) {
		s.recordDurableSave(r)
	}
}

// livenessTick reports whether the order is still in progress
func (s *Session) livenessTick(ctx context.Context, r *run) bool {
	ctx, span := s.startTick(ctx, r, tickLiveness)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	active := s.monitor.CheckStillActive(callCtx, r.identity)
	s.metrics.RecordLivenessCheck(ctx, active)
	if !active {
		slog.Info("Order reached terminal status, ending tracking",
			"run_id", r.id,
			"order_id", r.identity.OrderID)
	}
	return active
}

// flush makes a bounded number of attempts to refresh the live record with
// c once the run has ended. There is no later tick to retry it.
func (s *Session) flush(ctx context.Context, r *run, c location.Coordinates) {
	ctx, span := s.startTick(ctx, r, tickStop)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	started := s.clock.Now()
	sample := location.NewSample(r.identity, c, started)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = flushInitialInterval

	_, err := backoff.Retry(ctx, func() (bool, error) {
		if s.ephemeral.PublishEphemeral(ctx, sample) {
			return true, nil
		}
		return false, errFlushFailed
	}, backoff.WithBackOff(b), backoff.WithMaxTries(flushMaxTries))

	s.metrics.RecordPublish(ctx, telemetry.SinkEphemeral, s.clock.Since(started), err == nil)
	if err != nil {
		otel.RecordError(span, err)
		slog.Warn("Final ephemeral refresh failed", "run_id", r.id, "order_id", r.identity.OrderID, "error", err)
	}
}
