package tracking

import (
	"time"

	"github.com/fieldtrack/location-tracker/internal/location"
)

// Status is a point-in-time view of a session
type Status struct {
	Active          bool                  `json:"active"`
	RunID           string                `json:"run_id,omitempty"`
	Identity        *location.Identity    `json:"identity,omitempty"`
	LastPublished   *location.Coordinates `json:"last_published,omitempty"`
	LastDurableSave *time.Time            `json:"last_durable_save,omitempty"`
	Backgrounded    bool                  `json:"backgrounded"`
	StartedAt       *time.Time            `json:"started_at,omitempty"`
}

// Status returns a snapshot of the session state
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Active:       s.current != nil,
		Backgrounded: s.backgrounded,
	}

	if s.lastPublished != nil {
		c := *s.lastPublished
		st.LastPublished = &c
	}

	if r := s.current; r != nil {
		id := r.identity
		started := r.startedAt
		st.RunID = r.id
		st.Identity = &id
		st.StartedAt = &started
		if !s.lastDurableSave.IsZero() {
			saved := s.lastDurableSave
			st.LastDurableSave = &saved
		}
	}

	return st
}

// Active reports whether a session is running
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// CurrentOrderID returns the tracked order, or zero when idle
func (s *Session) CurrentOrderID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return 0
	}
	return s.current.identity.OrderID
}
