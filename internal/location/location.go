// Package location defines the value types exchanged by the tracking engine:
// agent roles, coordinates, session identity and the published sample.
package location

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Role identifies the kind of participant whose position is tracked.
type Role string

const (
	// RoleRetail is a retail customer handing over material
	RoleRetail Role = "R"

	// RoleShop is a scrap shop
	RoleShop Role = "S"

	// RoleRecycler is a scrap recycler
	RoleRecycler Role = "SR"

	// RoleDelivery is a delivery partner
	RoleDelivery Role = "D"
)

var (
	// ErrInvalidRole is returned when a role is empty or not one of the known roles
	ErrInvalidRole = errors.New("invalid agent role")

	// ErrInvalidCoordinates is returned when coordinates are out of range or not finite
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrInvalidIdentity is returned when an identity is missing a required field
	ErrInvalidIdentity = errors.New("invalid tracking identity")
)

// ParseRole converts a string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRetail, RoleShop, RoleRecycler, RoleDelivery:
		return true
	default:
		return false
	}
}

// Coordinates is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ValidateCoordinates checks that both values are finite and inside
// -90..90 and -180..180 respectively.
func ValidateCoordinates(c Coordinates) error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) {
		return fmt.Errorf("%w: latitude is not a finite number", ErrInvalidCoordinates)
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return fmt.Errorf("%w: longitude is not a finite number", ErrInvalidCoordinates)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v outside -90..90", ErrInvalidCoordinates, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v outside -180..180", ErrInvalidCoordinates, c.Longitude)
	}
	return nil
}

// Identity names the order and agent a tracking session publishes for.
type Identity struct {
	OrderID int64 `json:"order_id"`
	AgentID int64 `json:"agent_id"`
	Role    Role  `json:"agent_role"`
}

// Validate checks that every identity field is present.
func (i Identity) Validate() error {
	if i.OrderID <= 0 {
		return fmt.Errorf("%w: order id must be positive, got %d", ErrInvalidIdentity, i.OrderID)
	}
	if i.AgentID <= 0 {
		return fmt.Errorf("%w: agent id must be positive, got %d", ErrInvalidIdentity, i.AgentID)
	}
	if !i.Role.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidIdentity, ErrInvalidRole, i.Role)
	}
	return nil
}

// Sample is one position reading attributed to an order and agent.
// The JSON encoding is the payload stored in the ephemeral store.
type Sample struct {
	AgentID   int64     `json:"agentId"`
	AgentRole Role      `json:"agentRole"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	OrderID   int64     `json:"orderId"`
}

// NewSample builds a sample for the identity at the given position and time.
func NewSample(id Identity, c Coordinates, at time.Time) Sample {
	return Sample{
		AgentID:   id.AgentID,
		AgentRole: id.Role,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		Timestamp: at.UTC(),
		OrderID:   id.OrderID,
	}
}

// Coordinates returns the sample's position.
func (s Sample) Coordinates() Coordinates {
	return Coordinates{Latitude: s.Latitude, Longitude: s.Longitude}
}

// Identity returns the order and agent the sample belongs to.
func (s Sample) Identity() Identity {
	return Identity{OrderID: s.OrderID, AgentID: s.AgentID, Role: s.AgentRole}
}

// Validate checks the sample's identity and coordinates.
func (s Sample) Validate() error {
	if err := s.Identity().Validate(); err != nil {
		return err
	}
	return ValidateCoordinates(s.Coordinates())
}
