// Package lifecycle carries the host application's foreground/background
// signal to the tracking session.
package lifecycle

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// State is the application visibility state
type State string

const (
	// Foreground means the application is visible to the user
	Foreground State = "foreground"

	// Background means the application is running without being visible
	Background State = "background"
)

// ParseState converts a string into a State.
func ParseState(s string) (State, error) {
	switch State(strings.ToLower(strings.TrimSpace(s))) {
	case Foreground:
		return Foreground, nil
	case Background:
		return Background, nil
	default:
		return "", fmt.Errorf("unknown lifecycle state %q", s)
	}
}

// Transition describes the edge between two observed states
type Transition int

const (
	// NoTransition means the state did not change
	NoTransition Transition = iota
	// ToForeground is the background to foreground edge
	ToForeground
	// ToBackground is the foreground to background edge
	ToBackground
)

// String returns a readable name for the transition
func (t Transition) String() string {
	switch t {
	case ToForeground:
		return "to_foreground"
	case ToBackground:
		return "to_background"
	default:
		return "none"
	}
}

// EdgeDetector turns a stream of states into transitions
type EdgeDetector struct {
	last State
}

// NewEdgeDetector creates a detector starting from initial.
func NewEdgeDetector(initial State) *EdgeDetector {
	return &EdgeDetector{last: initial}
}

// Observe records s and returns the transition it caused.
func (e *EdgeDetector) Observe(s State) Transition {
	prev := e.last
	e.last = s
	switch {
	case prev == Background && s == Foreground:
		return ToForeground
	case prev == Foreground && s == Background:
		return ToBackground
	default:
		return NoTransition
	}
}

// Current returns the last observed state.
func (e *EdgeDetector) Current() State {
	return e.last
}

// subscriberBuffer bounds how many undelivered states a subscriber may hold
const subscriberBuffer = 8

// Broadcaster holds the process-wide lifecycle state and fans changes out
// to subscribers.
type Broadcaster struct {
	mu      sync.Mutex
	current State
	subs    map[int]chan State
	nextID  int
}

// NewBroadcaster creates a broadcaster in the initial state.
func NewBroadcaster(initial State) *Broadcaster {
	return &Broadcaster{
		current: initial,
		subs:    make(map[int]chan State),
	}
}

// Current returns the latest state.
func (b *Broadcaster) Current() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Set records a new state and delivers it to every subscriber. Repeated
// states are delivered too; subscribers detect edges themselves.
func (b *Broadcaster) Set(s State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s != b.current {
		slog.Info("Application lifecycle changed", "from", string(b.current), "to", string(s))
	}
	b.current = s

	for id, ch := range b.subs {
		select {
		case ch <- s:
			continue
		default:
		}

		// A full buffer gives up its oldest state so the latest one is
		// always delivered. Only Set sends, under b.mu, so one slot suffices.
		select {
		case dropped := <-ch:
			slog.Warn("Lifecycle subscriber is not keeping up, dropping oldest state",
				"subscriber", id,
				"dropped", string(dropped),
				"state", string(s))
		default:
		}
		ch <- s
	}
}

// Subscribe registers a new subscriber. The returned function unregisters it
// and closes the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan State, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan State, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}
