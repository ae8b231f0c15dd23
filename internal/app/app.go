// Package app provides application lifecycle management for the location tracker.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fieldtrack/location-tracker/internal/config"
)

// errShuttingDown is reported by the readiness check once Stop has begun
var errShuttingDown = errors.New("shutting down")

// TrackerApp encapsulates all components needed to run the location tracker
// It provides lifecycle management and graceful shutdown capabilities
type TrackerApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	ready atomic.Bool
}

// Start starts the HTTP server.
// This method blocks until the HTTP server stops or encounters an error
func (app *TrackerApp) Start() error {
	app.ready.Store(true)

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.ready.Store(false)
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout.
// The control API is closed first so no request can start a new run, then
// the tracking session is stopped and flushed while telemetry still exports.
func (app *TrackerApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")
	app.ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}

	app.components.Session.Stop()

	if app.components.Telemetry != nil {
		if err := app.components.Telemetry.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown failed: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	slog.Info("Server shutdown complete")
	return nil
}

// Ready reports whether the application accepts requests
func (app *TrackerApp) Ready(_ context.Context) error {
	if !app.ready.Load() {
		return errShuttingDown
	}
	return nil
}

// GetConfig returns the application configuration
func (app *TrackerApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *TrackerApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the wired application components
func (app *TrackerApp) Components() *AppComponents {
	return app.components
}
