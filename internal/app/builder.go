package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/utils/clock"

	"github.com/fieldtrack/location-tracker/internal/api"
	"github.com/fieldtrack/location-tracker/internal/config"
	"github.com/fieldtrack/location-tracker/internal/httpclient"
	"github.com/fieldtrack/location-tracker/internal/lifecycle"
	"github.com/fieldtrack/location-tracker/internal/liveness"
	"github.com/fieldtrack/location-tracker/internal/position"
	"github.com/fieldtrack/location-tracker/internal/publisher"
	"github.com/fieldtrack/location-tracker/internal/telemetry"
	"github.com/fieldtrack/location-tracker/internal/tracking"
)

const (
	defaultReadTimeout = 10 * time.Second
	defaultIdleTimeout = 60 * time.Second

	// Starting a session can wait on the previous run's final flush and then
	// on the sample, ephemeral and durable calls of the initial publish
	handlerCallBudget = 4
	handlerSlack      = 5 * time.Second
)

// TrackerAppOptions is a function that configures the tracker app builder
type TrackerAppOptions func(*trackerAppConfig) error

// trackerAppConfig collects what NewTrackerApp needs.
// It supports dependency injection for testing while providing production defaults
type trackerAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	httpClient httpclient.Client
	ephemeral  publisher.EphemeralPublisher
	durable    publisher.DurablePublisher
	checker    liveness.Checker
	source     position.Source
	clock      clock.WithTicker
	telemetry  *telemetry.Telemetry

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
}

func baseConfig(opts ...TrackerAppOptions) (*trackerAppConfig, error) {
	cfg := &trackerAppConfig{
		readTimeout: defaultReadTimeout,
		idleTimeout: defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.Server.GetAddress()
	}

	cfg.requestTimeout, cfg.writeTimeout = handlerTimeouts(cfg.config.Tracking.GetCallTimeout())

	return cfg, nil
}

// handlerTimeouts derives the request and write timeouts of the control API
// from the per-call timeout of the tracking session
func handlerTimeouts(callTimeout time.Duration) (request, write time.Duration) {
	request = handlerCallBudget*callTimeout + handlerSlack
	return request, request + handlerSlack
}

// NewTrackerApp wires the tracking session, its collaborators and the control API
func NewTrackerApp(
	ctx context.Context,
	opts ...TrackerAppOptions,
) (*TrackerApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if cfg.telemetry == nil {
		cfg.telemetry, err = telemetry.New(ctx, cfg.config.Telemetry)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}

	components, err := buildTrackingComponents(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build tracking components: %w", err)
	}

	app := &TrackerApp{
		config:     cfg.config,
		components: components,
	}

	app.httpServer, err = buildHTTPServer(cfg, components, app.Ready)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	return app, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) TrackerAppOptions {
	return func(cfg *trackerAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address, overriding the configured one
func WithAddress(addr string) TrackerAppOptions {
	return func(cfg *trackerAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("address is not a valid host:port: %w", err)
		}
		if port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(net.JoinHostPort(host, port)); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) TrackerAppOptions {
	return func(cfg *trackerAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithHTTPClient sets the client used for the ephemeral store and the backend
func WithHTTPClient(c httpclient.Client) TrackerAppOptions {
	return func(cfg *trackerAppConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithPublishers allows injecting both publishers (for testing)
func WithPublishers(ephemeral publisher.EphemeralPublisher, durable publisher.DurablePublisher) TrackerAppOptions {
	return func(cfg *trackerAppConfig) error {
		cfg.ephemeral = ephemeral
		cfg.durable = durable
		return nil
	}
}

// WithLivenessChecker allows injecting the order liveness checker (for testing)
func WithLivenessChecker(c liveness.Checker) TrackerAppOptions {
	return func(cfg *trackerAppConfig) error {
		cfg.checker = c
		return nil
	}
}

// WithPositionSource replaces device-pushed fixes with src. The
// /v1/position endpoint is disabled in that case.
func WithPositionSource(src position.Source) TrackerAppOptions {
	return func(cfg *trackerAppConfig) error {
		cfg.source = src
		return nil
	}
}

// WithClock sets the clock driving the session tickers
func WithClock(c clock.WithTicker) TrackerAppOptions {
	return func(cfg *trackerAppConfig) error {
		cfg.clock = c
		return nil
	}
}

// WithTelemetry sets already initialized telemetry providers
func WithTelemetry(t *telemetry.Telemetry) TrackerAppOptions {
	return func(cfg *trackerAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// buildTrackingComponents builds the publishers, liveness monitor, position
// source and the session on top of them
func buildTrackingComponents(b *trackerAppConfig) (*AppComponents, error) {
	slog.Info("Initializing tracking components")

	trackingCfg := b.config.Tracking

	if b.httpClient == nil {
		b.httpClient = httpclient.NewDefaultClient(httpclient.DefaultTimeout)
	}

	if b.ephemeral == nil {
		if b.config.EphemeralStore == nil {
			return nil, fmt.Errorf("ephemeralStore configuration is required")
		}
		token, err := b.config.EphemeralStore.GetToken()
		if err != nil {
			return nil, fmt.Errorf("failed to read ephemeral store token: %w", err)
		}
		b.ephemeral = publisher.NewEphemeral(b.httpClient, publisher.EphemeralConfig{
			URL:   b.config.EphemeralStore.URL,
			Token: token,
			TTL:   trackingCfg.GetTTL(),
		})
	}

	var apiKey string
	if b.durable == nil || b.checker == nil {
		if b.config.Backend == nil {
			return nil, fmt.Errorf("backend configuration is required")
		}
		var err error
		apiKey, err = b.config.Backend.GetAPIKey()
		if err != nil {
			return nil, fmt.Errorf("failed to read backend API key: %w", err)
		}
	}

	if b.durable == nil {
		b.durable = publisher.NewDurable(b.httpClient, publisher.DurableConfig{
			BaseURL: b.config.Backend.URL,
			APIKey:  apiKey,
		})
	}

	if b.checker == nil {
		b.checker = liveness.NewMonitor(liveness.NewHTTPOrderProvider(b.httpClient, b.config.Backend.URL, apiKey))
	}

	metrics, err := telemetry.NewTrackingMetrics(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create tracking metrics: %w", err)
	}

	fixOpts := []position.LatestFixOption{position.WithMaxAge(trackingCfg.GetFixMaxAge())}
	sessionOpts := []tracking.Option{
		tracking.WithIntervals(tracking.Intervals{
			Ephemeral: trackingCfg.GetEphemeralInterval(),
			Durable:   trackingCfg.GetDurableInterval(),
			Liveness:  trackingCfg.GetLivenessInterval(),
		}),
		tracking.WithThreshold(trackingCfg.GetDistanceThresholdMeters()),
		tracking.WithCallTimeout(trackingCfg.GetCallTimeout()),
		tracking.WithMetrics(metrics),
		tracking.WithTracer(b.telemetry.TracerProvider().Tracer(telemetry.TrackingTracerName)),
	}
	if b.clock != nil {
		fixOpts = append(fixOpts, position.WithClock(b.clock))
		sessionOpts = append(sessionOpts, tracking.WithClock(b.clock))
	}

	var fixes *position.LatestFix
	source := b.source
	if source == nil {
		fixes = position.NewLatestFix(fixOpts...)
		source = fixes
	} else {
		slog.Info("Using a fixed position source, device fixes are not accepted")
	}

	broadcaster := lifecycle.NewBroadcaster(lifecycle.Foreground)
	sessionOpts = append(sessionOpts, tracking.WithLifecycle(broadcaster))

	session := tracking.New(source, b.ephemeral, b.durable, b.checker, sessionOpts...)

	slog.Info("Tracking components initialized successfully",
		"ephemeral_interval", trackingCfg.GetEphemeralInterval(),
		"durable_interval", trackingCfg.GetDurableInterval(),
		"liveness_interval", trackingCfg.GetLivenessInterval(),
		"distance_threshold_meters", trackingCfg.GetDistanceThresholdMeters(),
	)

	return &AppComponents{
		Session:   session,
		Fixes:     fixes,
		Lifecycle: broadcaster,
		Telemetry: b.telemetry,
	}, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(
	b *trackerAppConfig,
	components *AppComponents,
	ready func(context.Context) error,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing go first so they capture every request
	metricsMiddleware, err := telemetry.MetricsMiddleware(components.Telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	b.middlewares = append([]func(http.Handler) http.Handler{
		metricsMiddleware,
		telemetry.TracingMiddleware(components.Telemetry.TracerProvider()),
	}, b.middlewares...)

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
		api.WithReadiness(ready),
		api.WithLifecycle(components.Lifecycle),
	}
	if components.Fixes != nil {
		serverOpts = append(serverOpts, api.WithFixRecorder(components.Fixes))
	}
	if components.Telemetry.PrometheusEnabled() {
		serverOpts = append(serverOpts, api.WithMetricsHandler(promhttp.Handler()))
		slog.Info("Prometheus metrics endpoint enabled", "path", "/metrics")
	}

	router := api.NewServer(components.Session, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
