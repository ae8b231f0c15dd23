package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	trackerapp "github.com/fieldtrack/location-tracker/internal/app"
	"github.com/fieldtrack/location-tracker/internal/config"
	"github.com/fieldtrack/location-tracker/internal/location"
	"github.com/fieldtrack/location-tracker/internal/position"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the location tracker",
	Long: `Start the location tracker and its control API.

The server requires a configuration file (--config) that specifies:
- The ephemeral store endpoint and token file
- The backend API base URL and API key file
- Optional tracking intervals, movement threshold and telemetry

Secrets may also come from LOCATION_TRACKER_EPHEMERAL_TOKEN and
LOCATION_TRACKER_BACKEND_API_KEY. See examples/ for a sample configuration.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
)

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides server.address)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	serveCmd.Flags().String("fixed-position", "",
		"Report a constant \"lat,lng\" instead of device-pushed fixes (development)")

	err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address"))
	if err != nil {
		slog.Error("Failed to bind address flag", "error", err)
		os.Exit(1)
	}
	err = viper.BindPFlag("config", serveCmd.Flags().Lookup("config"))
	if err != nil {
		slog.Error("Failed to bind config flag", "error", err)
		os.Exit(1)
	}
	err = viper.BindPFlag("fixed_position", serveCmd.Flags().Lookup("fixed-position"))
	if err != nil {
		slog.Error("Failed to bind fixed-position flag", "error", err)
		os.Exit(1)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
		os.Exit(1)
	}
}

// parseFixedPosition parses "lat,lng" into validated coordinates
func parseFixedPosition(value string) (location.Coordinates, error) {
	lat, lng, ok := strings.Cut(value, ",")
	if !ok {
		return location.Coordinates{}, fmt.Errorf("fixed position must be \"lat,lng\", got %q", value)
	}

	latitude, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return location.Coordinates{}, fmt.Errorf("invalid latitude %q: %w", lat, err)
	}
	longitude, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return location.Coordinates{}, fmt.Errorf("invalid longitude %q: %w", lng, err)
	}

	c := location.Coordinates{Latitude: latitude, Longitude: longitude}
	if err := location.ValidateCoordinates(c); err != nil {
		return location.Coordinates{}, err
	}
	return c, nil
}

// buildAppOptions turns the loaded configuration and flags into app options
func buildAppOptions(cfg *config.Config, address, fixedPosition string) ([]trackerapp.TrackerAppOptions, error) {
	opts := []trackerapp.TrackerAppOptions{trackerapp.WithConfig(cfg)}
	if address != "" {
		opts = append(opts, trackerapp.WithAddress(address))
	}
	if fixedPosition != "" {
		c, err := parseFixedPosition(fixedPosition)
		if err != nil {
			return nil, err
		}
		opts = append(opts, trackerapp.WithPositionSource(position.Static(c)))
	}
	return opts, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"ephemeral_store", cfg.EphemeralStore.URL,
		"backend", cfg.Backend.URL)

	opts, err := buildAppOptions(cfg, viper.GetString("address"), viper.GetString("fixed_position"))
	if err != nil {
		return err
	}

	app, err := trackerapp.NewTrackerApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create tracker application: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(app.Start)
	g.Go(func() error {
		<-gctx.Done()
		return app.Stop(defaultGracefulTimeout)
	})

	return g.Wait()
}
