package tracking

import (
	"time"

	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/fieldtrack/location-tracker/internal/geo"
	"github.com/fieldtrack/location-tracker/internal/lifecycle"
	"github.com/fieldtrack/location-tracker/internal/telemetry"
)

const (
	// DefaultEphemeralInterval is how often the live record is refreshed
	DefaultEphemeralInterval = 5 * time.Minute

	// DefaultDurableInterval is how often a durable write is considered
	DefaultDurableInterval = 30 * time.Minute

	// DefaultLivenessInterval is how often the order state is checked
	DefaultLivenessInterval = time.Minute

	// DefaultCallTimeout bounds every call to the position source, the
	// publishers and the order-state provider
	DefaultCallTimeout = 5 * time.Second
)

// Intervals holds the three tick periods of a session
type Intervals struct {
	Ephemeral time.Duration
	Durable   time.Duration
	Liveness  time.Duration
}

// DefaultIntervals returns the production tick periods
func DefaultIntervals() Intervals {
	return Intervals{
		Ephemeral: DefaultEphemeralInterval,
		Durable:   DefaultDurableInterval,
		Liveness:  DefaultLivenessInterval,
	}
}

// withDefaults fills zero or negative periods with their defaults
func (i Intervals) withDefaults() Intervals {
	if i.Ephemeral <= 0 {
		i.Ephemeral = DefaultEphemeralInterval
	}
	if i.Durable <= 0 {
		i.Durable = DefaultDurableInterval
	}
	if i.Liveness <= 0 {
		i.Liveness = DefaultLivenessInterval
	}
	return i
}

// Option configures a Session
type Option func(*Session)

// WithClock sets the clock the session's tickers and timestamps come from
func WithClock(c clock.WithTicker) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithIntervals sets the tick periods. Zero fields keep their defaults.
func WithIntervals(i Intervals) Option {
	return func(s *Session) {
		s.intervals = i.withDefaults()
	}
}

// WithThreshold sets the distance in meters an agent must move before
// another durable write happens
func WithThreshold(meters float64) Option {
	return func(s *Session) {
		if meters >= 0 {
			s.threshold = meters
		}
	}
}

// WithCallTimeout sets the timeout applied to each external call
func WithCallTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// WithLifecycle subscribes each run to foreground/background changes
func WithLifecycle(b *lifecycle.Broadcaster) Option {
	return func(s *Session) {
		s.lifecycle = b
	}
}

// WithMetrics sets the tracking metrics
func WithMetrics(m *telemetry.TrackingMetrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithTracer sets the tracer used for tick spans
func WithTracer(t trace.Tracer) Option {
	return func(s *Session) {
		s.tracer = t
	}
}

func defaultOptions(s *Session) {
	s.clock = clock.RealClock{}
	s.intervals = DefaultIntervals()
	s.threshold = geo.DefaultThresholdMeters
	s.callTimeout = DefaultCallTimeout
}
