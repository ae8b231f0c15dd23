package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fieldtrack/location-tracker/internal/httpclient"
	"github.com/fieldtrack/location-tracker/internal/tracking"
	"github.com/fieldtrack/location-tracker/internal/versions"
)

const statusRequestTimeout = 5 * time.Second

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the tracking session of a running tracker",
	RunE: func(cmd *cobra.Command, _ []string) error {
		server, err := cmd.Flags().GetString("server")
		if err != nil {
			return err
		}
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), statusRequestTimeout)
		defer cancel()

		report, err := fetchStatus(ctx, httpclient.NewDefaultClient(statusRequestTimeout), server,
			versions.GetVersionInfo().Version)
		if err != nil {
			return err
		}
		return writeStatus(cmd.OutOrStdout(), report, format)
	},
}

func init() {
	statusCmd.Flags().String("server", "http://localhost:8080", "Base URL of the tracker control API")
	statusCmd.Flags().String("format", "", "Output format (json)")
}

// statusReport combines the session status with the server version and how
// it relates to this client
type statusReport struct {
	Server        versions.VersionInfo `json:"server"`
	ClientVersion string               `json:"client_version"`
	Skew          versions.Skew        `json:"version_skew"`
	Session       tracking.Status      `json:"session"`
}

func fetchStatus(
	ctx context.Context, client httpclient.Client, server, clientVersion string,
) (*statusReport, error) {
	base := strings.TrimSuffix(server, "/")
	report := &statusReport{ClientVersion: clientVersion}

	body, err := client.Get(ctx, base+"/version")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch server version: %w", err)
	}
	if err := json.Unmarshal(body, &report.Server); err != nil {
		return nil, fmt.Errorf("failed to decode server version: %w", err)
	}
	report.Skew = versions.CompareWithServer(report.Server.Version, clientVersion)

	body, err = client.Get(ctx, base+"/v1/tracking/status")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracking status: %w", err)
	}
	if err := json.Unmarshal(body, &report.Session); err != nil {
		return nil, fmt.Errorf("failed to decode tracking status: %w", err)
	}

	return report, nil
}

func writeStatus(w io.Writer, report *statusReport, format string) error {
	if format == "json" {
		output, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format status as JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(output))
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	s := report.Session
	if s.Active && s.Identity != nil {
		fmt.Fprintf(w, "%s %s\n", bold("Session:"), green("tracking"))
		fmt.Fprintf(w, "  Order:  %d\n", s.Identity.OrderID)
		fmt.Fprintf(w, "  Agent:  %d (%s)\n", s.Identity.AgentID, s.Identity.Role)
		fmt.Fprintf(w, "  Run:    %s\n", s.RunID)
		if s.StartedAt != nil {
			fmt.Fprintf(w, "  Since:  %s\n", s.StartedAt.Format(time.RFC3339))
		}
	} else {
		fmt.Fprintf(w, "%s %s\n", bold("Session:"), yellow("idle"))
	}

	if s.LastPublished != nil {
		fmt.Fprintf(w, "  Last position:    %.6f, %.6f\n", s.LastPublished.Latitude, s.LastPublished.Longitude)
	}
	if s.LastDurableSave != nil {
		fmt.Fprintf(w, "  Last durable save: %s\n", s.LastDurableSave.Format(time.RFC3339))
	}
	if s.Backgrounded {
		fmt.Fprintf(w, "  App state:        %s\n", yellow("background"))
	}

	fmt.Fprintf(w, "%s %s (client %s)\n", bold("Server version:"), report.Server.Version, report.ClientVersion)

	switch report.Skew {
	case versions.SkewServerNewer:
		fmt.Fprintln(w, yellow(fmt.Sprintf(
			"The server runs %s, newer than this client (%s); update the CLI", report.Server.Version, report.ClientVersion)))
	case versions.SkewServerOlder:
		fmt.Fprintln(w, yellow(fmt.Sprintf(
			"The server runs %s, older than this client (%s); some fields may be missing",
			report.Server.Version, report.ClientVersion)))
	case versions.SkewUnknown:
		fmt.Fprintln(w, color.New(color.Faint).Sprint("Version skew unknown: development or unversioned build"))
	}

	return nil
}
