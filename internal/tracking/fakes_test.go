package tracking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldtrack/location-tracker/internal/location"
	"github.com/fieldtrack/location-tracker/internal/position"
	"github.com/fieldtrack/location-tracker/internal/tracking"
)

const (
	waitTimeout = 2 * time.Second
	waitTick    = 5 * time.Millisecond
)

// recordingSink implements both publisher interfaces and keeps every sample
type recordingSink struct {
	mu        sync.Mutex
	ephemeral []location.Sample
	durable   []location.Sample

	// acceptEphemeral decides the ephemeral result; nil accepts everything
	acceptEphemeral func(location.Sample) bool
	durableOK       bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{durableOK: true}
}

func (r *recordingSink) PublishEphemeral(_ context.Context, s location.Sample) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ephemeral = append(r.ephemeral, s)
	if r.acceptEphemeral == nil {
		return true
	}
	return r.acceptEphemeral(s)
}

func (r *recordingSink) PublishDurable(_ context.Context, s location.Sample) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durable = append(r.durable, s)
	return r.durableOK
}

func (r *recordingSink) setDurableOK(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durableOK = ok
}

func (r *recordingSink) setAcceptEphemeral(fn func(location.Sample) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.acceptEphemeral = fn
}

func (r *recordingSink) ephemeralSamples() []location.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]location.Sample(nil), r.ephemeral...)
}

func (r *recordingSink) durableSamples() []location.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]location.Sample(nil), r.durable...)
}

func (r *recordingSink) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ephemeral), len(r.durable)
}

// waitForCounts blocks until the sink has seen exactly the given number of writes
func (r *recordingSink) waitForCounts(t *testing.T, ephemeral, durable int) {
	t.Helper()
	require.Eventually(t, func() bool {
		e, d := r.counts()
		return e == ephemeral && d == durable
	}, waitTimeout, waitTick, "waiting for %d ephemeral and %d durable writes", ephemeral, durable)
}

// movableSource is a position source the test can move or disable
type movableSource struct {
	mu  sync.Mutex
	c   location.Coordinates
	err error
}

func newMovableSource(c location.Coordinates) *movableSource {
	return &movableSource{c: c}
}

func (m *movableSource) CurrentPosition(_ context.Context) (location.Coordinates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.c, m.err
}

func (m *movableSource) moveTo(c location.Coordinates) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c = c
	m.err = nil
}

func (m *movableSource) lose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = position.ErrUnavailable
}

// stoppingSource stops its session from within CurrentPosition on the
// stopOnCall-th call, the way a collaborator that detects completion would
type stoppingSource struct {
	mu         sync.Mutex
	c          location.Coordinates
	calls      int
	stopOnCall int
	session    *tracking.Session
}

func (p *stoppingSource) CurrentPosition(ctx context.Context) (location.Coordinates, error) {
	p.mu.Lock()
	p.calls++
	stop := p.calls == p.stopOnCall
	p.mu.Unlock()

	if stop {
		p.session.StopContext(ctx)
	}
	return p.c, nil
}

// stillActive is a liveness checker that never ends a session
type stillActive struct{}

func (stillActive) CheckStillActive(context.Context, location.Identity) bool { return true }
