// Package config provides configuration loading and management for the location tracker.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fieldtrack/location-tracker/internal/geo"
	"github.com/fieldtrack/location-tracker/internal/telemetry"
	"github.com/fieldtrack/location-tracker/internal/tracking"
)

const (
	// EnvPrefix is the prefix of environment variables read by the tracker
	EnvPrefix = "LOCATION_TRACKER"

	// EphemeralTokenEnv names the environment variable holding the ephemeral store token
	EphemeralTokenEnv = "LOCATION_TRACKER_EPHEMERAL_TOKEN"

	// BackendAPIKeyEnv names the environment variable holding the backend API key
	BackendAPIKeyEnv = "LOCATION_TRACKER_BACKEND_API_KEY"

	// DefaultServerAddress is the control API listen address
	DefaultServerAddress = ":8080"

	// DefaultTTLSeconds is the lifetime of ephemeral records
	DefaultTTLSeconds = 7200

	// DefaultFixMaxAge is how old a pushed position fix may be before it is ignored
	DefaultFixMaxAge = 10 * time.Minute

	// ttlIntervalFactor is how many ephemeral intervals a record must outlive
	ttlIntervalFactor = 24
)

const (
	defaultEphemeralInterval = tracking.DefaultEphemeralInterval
	defaultDurableInterval   = tracking.DefaultDurableInterval
	defaultLivenessInterval  = tracking.DefaultLivenessInterval
	defaultCallTimeout       = tracking.DefaultCallTimeout
	defaultThresholdMeters   = geo.DefaultThresholdMeters
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	EphemeralStore *EphemeralStoreConfig `yaml:"ephemeralStore"`
	Backend        *BackendConfig        `yaml:"backend"`
	Tracking       *TrackingConfig       `yaml:"tracking,omitempty"`
	Server         *ServerConfig         `yaml:"server,omitempty"`
	Telemetry      *telemetry.Config     `yaml:"telemetry,omitempty"`
}

// EphemeralStoreConfig defines the TTL key-value store reached over its REST API
type EphemeralStoreConfig struct {
	// URL is the REST endpoint of the store
	URL string `yaml:"url"`

	// TokenFile is the path to a file containing the bearer token
	// The file should contain only the token with optional trailing whitespace
	TokenFile string `yaml:"tokenFile,omitempty"`
}

// BackendConfig defines the durable backend API
type BackendConfig struct {
	// URL is the base URL of the backend API, e.g. "https://api.example.com/v2"
	URL string `yaml:"url"`

	// APIKeyFile is the path to a file containing the API key
	APIKeyFile string `yaml:"apiKeyFile,omitempty"`
}

// TrackingConfig tunes the tracking session. Durations use Go syntax ("5m", "30s").
type TrackingConfig struct {
	EphemeralInterval       string  `yaml:"ephemeralInterval,omitempty"`
	DurableInterval         string  `yaml:"durableInterval,omitempty"`
	LivenessInterval        string  `yaml:"livenessInterval,omitempty"`
	DistanceThresholdMeters float64 `yaml:"distanceThresholdMeters,omitempty"`
	TTLSeconds              int     `yaml:"ttlSeconds,omitempty"`
	CallTimeout             string  `yaml:"callTimeout,omitempty"`
	FixMaxAge               string  `yaml:"fixMaxAge,omitempty"`
}

// ServerConfig defines the control API listener
type ServerConfig struct {
	Address string `yaml:"address,omitempty"`
}

// readSecret reads a secret from file, falling back to the environment
func readSecret(file, env string) (string, error) {
	if file != "" {
		// Use filepath.Clean to prevent path traversal attacks
		data, err := os.ReadFile(filepath.Clean(file))
		if err != nil {
			return "", fmt.Errorf("failed to read secret from file %s: %w", file, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	return os.Getenv(env), nil
}

// GetToken returns the store token from TokenFile, or from
// LOCATION_TRACKER_EPHEMERAL_TOKEN when no file is set. An empty token is
// not an error: ephemeral publishing is skipped without credentials.
func (e *EphemeralStoreConfig) GetToken() (string, error) {
	return readSecret(e.TokenFile, EphemeralTokenEnv)
}

// GetAPIKey returns the backend API key using the following priority:
// 1. Read from APIKeyFile if specified
// 2. Read from LOCATION_TRACKER_BACKEND_API_KEY environment variable
func (b *BackendConfig) GetAPIKey() (string, error) {
	key, err := readSecret(b.APIKeyFile, BackendAPIKeyEnv)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf(
			"no backend API key configured: set apiKeyFile or %s environment variable", BackendAPIKeyEnv,
		)
	}
	return key, nil
}

func durationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetEphemeralInterval returns the ephemeral tick period
func (t *TrackingConfig) GetEphemeralInterval() time.Duration {
	if t == nil {
		return defaultEphemeralInterval
	}
	return durationOr(t.EphemeralInterval, defaultEphemeralInterval)
}

// GetDurableInterval returns the durable tick period
func (t *TrackingConfig) GetDurableInterval() time.Duration {
	if t == nil {
		return defaultDurableInterval
	}
	return durationOr(t.DurableInterval, defaultDurableInterval)
}

// GetLivenessInterval returns the order-state check period
func (t *TrackingConfig) GetLivenessInterval() time.Duration {
	if t == nil {
		return defaultLivenessInterval
	}
	return durationOr(t.LivenessInterval, defaultLivenessInterval)
}

// GetCallTimeout returns the timeout applied to each external call
func (t *TrackingConfig) GetCallTimeout() time.Duration {
	if t == nil {
		return defaultCallTimeout
	}
	return durationOr(t.CallTimeout, defaultCallTimeout)
}

// GetFixMaxAge returns how long a pushed position fix stays usable
func (t *TrackingConfig) GetFixMaxAge() time.Duration {
	if t == nil {
		return DefaultFixMaxAge
	}
	return durationOr(t.FixMaxAge, DefaultFixMaxAge)
}

// GetDistanceThresholdMeters returns the movement needed before another durable write
func (t *TrackingConfig) GetDistanceThresholdMeters() float64 {
	if t == nil || t.DistanceThresholdMeters == 0 {
		return defaultThresholdMeters
	}
	return t.DistanceThresholdMeters
}

// GetTTL returns the lifetime of ephemeral records
func (t *TrackingConfig) GetTTL() time.Duration {
	if t == nil || t.TTLSeconds == 0 {
		return DefaultTTLSeconds * time.Second
	}
	return time.Duration(t.TTLSeconds) * time.Second
}

// GetAddress returns the listen address, using ":8080" if not specified
func (s *ServerConfig) GetAddress() string {
	if s == nil || s.Address == "" {
		return DefaultServerAddress
	}
	return s.Address
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.EphemeralStore == nil {
		return fmt.Errorf("ephemeralStore is required")
	}
	if err := validateURL(c.EphemeralStore.URL); err != nil {
		return fmt.Errorf("ephemeralStore.url: %w", err)
	}

	if c.Backend == nil {
		return fmt.Errorf("backend is required")
	}
	if err := validateURL(c.Backend.URL); err != nil {
		return fmt.Errorf("backend.url: %w", err)
	}

	if err := c.Tracking.validate(); err != nil {
		return fmt.Errorf("tracking: %w", err)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("must be a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '5m', '1h'): %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", field, value)
	}
	return nil
}

// validate checks the tracking settings. A nil section uses the defaults.
func (t *TrackingConfig) validate() error {
	if t == nil {
		return nil
	}

	var errs []error
	for field, value := range map[string]string{
		"ephemeralInterval": t.EphemeralInterval,
		"durableInterval":   t.DurableInterval,
		"livenessInterval":  t.LivenessInterval,
		"callTimeout":       t.CallTimeout,
		"fixMaxAge":         t.FixMaxAge,
	} {
		if err := validateDuration(field, value); err != nil {
			errs = append(errs, err)
		}
	}

	if t.DistanceThresholdMeters < 0 {
		errs = append(errs, fmt.Errorf("distanceThresholdMeters must not be negative, got %v", t.DistanceThresholdMeters))
	}
	if t.TTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("ttlSeconds must not be negative, got %d", t.TTLSeconds))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	ephemeral := t.GetEphemeralInterval()
	if minTTL := ttlIntervalFactor * ephemeral; t.GetTTL() < minTTL {
		return fmt.Errorf("ttlSeconds (%s) must be at least %d ephemeral intervals (%s)",
			t.GetTTL(), ttlIntervalFactor, minTTL)
	}

	if !(t.GetLivenessInterval() <= ephemeral && ephemeral <= t.GetDurableInterval()) {
		slog.Warn("Unusual tracking intervals, expected liveness <= ephemeral <= durable",
			"liveness_interval", t.GetLivenessInterval(),
			"ephemeral_interval", ephemeral,
			"durable_interval", t.GetDurableInterval())
	}

	return nil
}
