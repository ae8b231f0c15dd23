package tracking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/fieldtrack/location-tracker/internal/lifecycle"
	"github.com/fieldtrack/location-tracker/internal/liveness"
	"github.com/fieldtrack/location-tracker/internal/location"
	"github.com/fieldtrack/location-tracker/internal/position"
	"github.com/fieldtrack/location-tracker/internal/publisher"
	"github.com/fieldtrack/location-tracker/internal/telemetry"
)

// ErrInvalidIdentity is returned by Start when the identity is incomplete
var ErrInvalidIdentity = location.ErrInvalidIdentity

// Session tracks the position of one agent for one order at a time.
// The zero value is not usable; create sessions with New.
type Session struct {
	source    position.Source
	ephemeral publisher.EphemeralPublisher
	durable   publisher.DurablePublisher
	monitor   liveness.Checker

	clock       clock.WithTicker
	intervals   Intervals
	threshold   float64
	callTimeout time.Duration
	lifecycle   *lifecycle.Broadcaster
	metrics     *telemetry.TrackingMetrics
	tracer      trace.Tracer

	// startMu serializes Start and Stop callers. The worker never takes it.
	startMu sync.Mutex

	mu      sync.Mutex
	current *run
	last    *run

	// Retained across runs
	lastPublished *location.Coordinates

	// Reset on every Start
	lastDurableSave time.Time
	backgrounded    bool
}

// run is one Start..Stop span of a session, owned by a single worker.
type run struct {
	id        string
	identity  location.Identity
	startedAt time.Time

	cancel      context.CancelFunc
	initialized chan struct{}
	done        chan struct{}

	ephemeral clock.Ticker
	durable   clock.Ticker
	liveness  clock.Ticker

	events      <-chan lifecycle.State
	unsubscribe func()
	edges       *lifecycle.EdgeDetector
}

// New creates an idle session
func New(
	source position.Source,
	ephemeral publisher.EphemeralPublisher,
	durable publisher.DurablePublisher,
	monitor liveness.Checker,
	opts ...Option,
) *Session {
	s := &Session{
		source:    source,
		ephemeral: ephemeral,
		durable:   durable,
		monitor:   monitor,
	}
	defaultOptions(s)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start begins tracking id, replacing any session that is already running.
//
// An invalid identity is rejected before the current session is touched.
// Start returns after the initial publish to both sinks has completed; the
// tickers are armed even when no position could be obtained for it.
// The session keeps running after ctx is cancelled; only its values
// (trace context) are inherited.
func (s *Session) Start(ctx context.Context, id location.Identity) error {
	if err := id.Validate(); err != nil {
		return err
	}

	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.stop()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &run{
		id:          uuid.NewString(),
		identity:    id,
		startedAt:   s.clock.Now(),
		cancel:      cancel,
		initialized: make(chan struct{}),
		done:        make(chan struct{}),
		ephemeral:   s.clock.NewTicker(s.intervals.Ephemeral),
		durable:     s.clock.NewTicker(s.intervals.Durable),
		liveness:    s.clock.NewTicker(s.intervals.Liveness),
	}

	backgrounded := false
	if s.lifecycle != nil {
		r.events, r.unsubscribe = s.lifecycle.Subscribe()
		state := s.lifecycle.Current()
		r.edges = lifecycle.NewEdgeDetector(state)
		backgrounded = state == lifecycle.Background
	}

	s.mu.Lock()
	s.current = r
	s.last = r
	s.lastDurableSave = time.Time{}
	s.backgrounded = backgrounded
	s.mu.Unlock()

	slog.Info("Starting location tracking",
		"run_id", r.id,
		"order_id", id.OrderID,
		"agent_id", id.AgentID,
		"role", string(id.Role),
		"ephemeral_interval", s.intervals.Ephemeral,
		"durable_interval", s.intervals.Durable,
		"liveness_interval", s.intervals.Liveness,
	)
	s.metrics.SessionStarted(runCtx)

	go s.work(context.WithValue(runCtx, workerKey{}, worker{session: s, run: r}), r)

	select {
	case <-r.initialized:
	case <-r.done:
	}
	return nil
}

// workerKey marks contexts handed to collaborators by a run's worker
type workerKey struct{}

type worker struct {
	session *Session
	run     *run
}

// Stop ends the current session and waits for its worker to exit.
// It is a no-op when the session is idle and safe to call repeatedly.
func (s *Session) Stop() {
	s.StopContext(context.Background())
}

// StopContext is Stop for callers that hold a context. When ctx was handed
// out by this session's worker the run is cancelled without waiting, and the
// worker finishes the teardown once the current tick returns.
func (s *Session) StopContext(ctx context.Context) {
	if w, ok := ctx.Value(workerKey{}).(worker); ok && w.session == s {
		slog.Info("Stopping location tracking from within the session",
			"run_id", w.run.id,
			"order_id", w.run.identity.OrderID)
		s.retire(w.run)
		w.run.cancel()
		return
	}

	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.stop()
}

func (s *Session) stop() {
	s.mu.Lock()
	r := s.current
	s.current = nil
	last := s.last
	s.mu.Unlock()

	if r != nil {
		slog.Info("Stopping location tracking", "run_id", r.id, "order_id", r.identity.OrderID)
		r.cancel()
	}
	if last != nil {
		<-last.done
	}
}

// isCurrent reports whether r is still the session's active run and its
// context has not been cancelled
func (s *Session) isCurrent(ctx context.Context, r *run) bool {
	if ctx.Err() != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current == r
}

// retire makes r inactive if it is still current
func (s *Session) retire(r *run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == r {
		s.current = nil
	}
}

// work is the run's worker loop
func (s *Session) work(ctx context.Context, r *run) {
	defer s.exit(ctx, r)

	s.publishInitial(ctx, r)
	close(r.initialized)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.ephemeral.C():
			s.ephemeralTick(ctx, r)
		case <-r.durable.C():
			s.durableTick(ctx, r, tickDurable)
		case <-r.liveness.C():
			if !s.livenessTick(ctx, r) {
				s.retire(r)
				r.cancel()
				return
			}
		case state, ok := <-r.events:
			if !ok {
				r.events = nil
				continue
			}
			s.observeLifecycle(ctx, r, state)
		}
	}
}

// exit tears down the run: tickers, lifecycle subscription, and one last
// best-effort refresh of the live record
func (s *Session) exit(ctx context.Context, r *run) {
	r.ephemeral.Stop()
	r.durable.Stop()
	r.liveness.Stop()
	if r.unsubscribe != nil {
		r.unsubscribe()
	}

	s.retire(r)

	s.mu.Lock()
	last := s.lastPublished
	s.mu.Unlock()

	if last != nil {
		s.flush(context.WithoutCancel(ctx), r, *last)
	}

	s.metrics.SessionStopped(context.WithoutCancel(ctx))
	slog.Info("Location tracking stopped", "run_id", r.id, "order_id", r.identity.OrderID)

	select {
	case <-r.initialized:
	default:
		close(r.initialized)
	}
	close(r.done)
}

func (s *Session) observeLifecycle(ctx context.Context, r *run, state lifecycle.State) {
	s.mu.Lock()
	if s.current == r {
		s.backgrounded = state == lifecycle.Background
	}
	s.mu.Unlock()

	transition := r.edges.Observe(state)
	if transition == lifecycle.NoTransition {
		return
	}

	slog.Info("Tracking observed lifecycle transition",
		"run_id", r.id,
		"transition", transition.String())

	if transition == lifecycle.ToForeground {
		s.durableTick(ctx, r, tickForeground)
	}
}
