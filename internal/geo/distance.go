// Package geo provides great-circle distance helpers used to throttle
// durable location writes.
package geo

import (
	"math"

	"github.com/fieldtrack/location-tracker/internal/location"
)

const (
	// EarthRadiusMeters is the mean Earth radius used by the haversine formula
	EarthRadiusMeters = 6371000.0

	// DefaultThresholdMeters is the movement below which a durable write is skipped
	DefaultThresholdMeters = 200.0
)

// DistanceMeters returns the haversine distance between a and b in meters.
func DistanceMeters(a, b location.Coordinates) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push h slightly past 1 for antipodal points.
	h = math.Min(1, h)

	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// HasMovedSignificantly reports whether current is more than thresholdMeters
// away from lastSaved. A nil lastSaved always counts as moved.
func HasMovedSignificantly(current location.Coordinates, lastSaved *location.Coordinates, thresholdMeters float64) bool {
	if lastSaved == nil {
		return true
	}
	return DistanceMeters(current, *lastSaved) > thresholdMeters
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
