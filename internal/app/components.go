package app

import (
	"github.com/fieldtrack/location-tracker/internal/lifecycle"
	"github.com/fieldtrack/location-tracker/internal/position"
	"github.com/fieldtrack/location-tracker/internal/telemetry"
	"github.com/fieldtrack/location-tracker/internal/tracking"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Session is the single tracking session of this process
	Session *tracking.Session

	// Fixes receives device position fixes and feeds the session.
	// Nil when a fixed position source is configured
	Fixes *position.LatestFix

	// Lifecycle carries foreground/background signals to the session
	Lifecycle *lifecycle.Broadcaster

	// Telemetry owns the tracer and meter providers
	Telemetry *telemetry.Telemetry
}
