// Package liveness decides whether a tracking session should keep running by
// asking the order-state provider whether the tracked order has finished.
package liveness

import (
	"context"
	"log/slog"

	"github.com/fieldtrack/location-tracker/internal/location"
)

// Checker reports whether tracking for an identity should continue
//
//go:generate mockgen -destination=mocks/mock_monitor.go -package=mocks -source=monitor.go Checker
type Checker interface {
	// CheckStillActive returns false only when the order is confirmed terminal
	CheckStillActive(ctx context.Context, id location.Identity) bool
}

// Monitor implements Checker on top of an OrderProvider.
//
// Only a confirmed terminal status stops tracking. A missing order, an order
// other than the tracked one, and lookup failures all keep the session alive:
// tracking for too long is preferred over stopping before completion.
type Monitor struct {
	provider OrderProvider
}

// NewMonitor creates a monitor backed by provider.
func NewMonitor(provider OrderProvider) *Monitor {
	return &Monitor{provider: provider}
}

// CheckStillActive implements Checker.
func (m *Monitor) CheckStillActive(ctx context.Context, id location.Identity) bool {
	order, err := m.provider.ActiveOrder(ctx, id.AgentID, id.Role)
	if err != nil {
		slog.Warn("Order status check failed, continuing to track",
			"order_id", id.OrderID,
			"error", err)
		return true
	}

	if order == nil || order.OrderID != id.OrderID {
		slog.Debug("Tracked order not returned by provider, continuing to track",
			"order_id", id.OrderID)
		return true
	}

	if order.Terminal() {
		slog.Info("Tracked order reached terminal status",
			"order_id", id.OrderID,
			"status", order.StatusCode)
		return false
	}

	return true
}
