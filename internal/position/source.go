// Package position provides the sources a tracking session samples the
// agent's current coordinates from.
package position

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/fieldtrack/location-tracker/internal/location"
)

// ErrUnavailable is returned when no usable position fix exists
var ErrUnavailable = errors.New("position unavailable")

// Source returns the agent's current coordinates on demand
//
//go:generate mockgen -destination=mocks/mock_source.go -package=mocks -source=source.go Source
type Source interface {
	// CurrentPosition returns the latest known coordinates or ErrUnavailable
	CurrentPosition(ctx context.Context) (location.Coordinates, error)
}

// Fix is a position reading with the time it was taken
type Fix struct {
	Coordinates location.Coordinates `json:"coordinates"`
	ReceivedAt  time.Time            `json:"received_at"`
}

// LatestFix is a Source fed by device clients pushing fixes. Fixes older
// than the configured maximum age are treated as unavailable.
type LatestFix struct {
	mu     sync.RWMutex
	fix    *Fix
	maxAge time.Duration
	clock  clock.PassiveClock
}

// LatestFixOption configures a LatestFix source
type LatestFixOption func(*LatestFix)

// WithMaxAge sets how long a fix stays usable. Zero disables the check.
func WithMaxAge(d time.Duration) LatestFixOption {
	return func(l *LatestFix) {
		l.maxAge = d
	}
}

// WithClock sets the clock used to stamp and age fixes.
func WithClock(c clock.PassiveClock) LatestFixOption {
	return func(l *LatestFix) {
		l.clock = c
	}
}

// NewLatestFix creates an empty LatestFix source.
func NewLatestFix(opts ...LatestFixOption) *LatestFix {
	l := &LatestFix{clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Update records a new fix after validating it.
func (l *LatestFix) Update(c location.Coordinates) error {
	if err := location.ValidateCoordinates(c); err != nil {
		return fmt.Errorf("rejecting position fix: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.fix = &Fix{Coordinates: c, ReceivedAt: l.clock.Now()}
	return nil
}

// Latest returns the most recent fix regardless of age.
func (l *LatestFix) Latest() (Fix, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.fix == nil {
		return Fix{}, false
	}
	return *l.fix, true
}

// CurrentPosition implements Source.
func (l *LatestFix) CurrentPosition(_ context.Context) (location.Coordinates, error) {
	fix, ok := l.Latest()
	if !ok {
		return location.Coordinates{}, ErrUnavailable
	}
	if l.maxAge > 0 {
		if age := l.clock.Since(fix.ReceivedAt); age > l.maxAge {
			return location.Coordinates{}, fmt.Errorf("%w: last fix is %s old", ErrUnavailable, age.Round(time.Second))
		}
	}
	return fix.Coordinates, nil
}

// Static always reports the same coordinates.
type Static location.Coordinates

// CurrentPosition implements Source.
func (s Static) CurrentPosition(_ context.Context) (location.Coordinates, error) {
	return location.Coordinates(s), nil
}
