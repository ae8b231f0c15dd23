// Package v1 provides the tracking control endpoints: start, stop and
// status of the tracking session, position fixes pushed by the device, and
// foreground/background signals.
package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldtrack/location-tracker/internal/api/common"
	"github.com/fieldtrack/location-tracker/internal/lifecycle"
	"github.com/fieldtrack/location-tracker/internal/location"
	"github.com/fieldtrack/location-tracker/internal/tracking"
)

// Tracker controls the tracking session
//
//go:generate mockgen -destination=mocks/mock_routes.go -package=mocks -source=routes.go Tracker,FixRecorder
type Tracker interface {
	Start(ctx context.Context, id location.Identity) error
	Stop()
	Status() tracking.Status
}

// FixRecorder accepts position fixes pushed by the device
type FixRecorder interface {
	Update(c location.Coordinates) error
}

// StartRequest is the body of POST /v1/tracking/start
type StartRequest struct {
	OrderID   int64  `json:"order_id"`
	AgentID   int64  `json:"agent_id"`
	AgentRole string `json:"agent_role"`
}

// PositionRequest is the body of POST /v1/position
type PositionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// LifecycleRequest is the body of POST /v1/lifecycle
type LifecycleRequest struct {
	State string `json:"state"`
}

// LifecycleResponse reports the broadcast state
type LifecycleResponse struct {
	State lifecycle.State `json:"state"`
}

// Routes holds the tracking handlers and their collaborators
type Routes struct {
	tracker   Tracker
	fixes     FixRecorder
	lifecycle *lifecycle.Broadcaster
}

// Router creates the router for the tracking API
func Router(tracker Tracker, fixes FixRecorder, broadcaster *lifecycle.Broadcaster) http.Handler {
	routes := &Routes{
		tracker:   tracker,
		fixes:     fixes,
		lifecycle: broadcaster,
	}

	r := chi.NewRouter()

	r.Route("/tracking", func(r chi.Router) {
		r.Post("/start", routes.startTracking)
		r.Post("/stop", routes.stopTracking)
		r.Get("/status", routes.trackingStatus)
	})
	r.Post("/position", routes.recordPosition)
	r.Post("/lifecycle", routes.setLifecycle)

	return r
}

// startTracking handles POST /v1/tracking/start
func (rr *Routes) startTracking(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := location.Identity{
		OrderID: req.OrderID,
		AgentID: req.AgentID,
		Role:    location.Role(req.AgentRole),
	}

	if err := rr.tracker.Start(r.Context(), id); err != nil {
		if errors.Is(err, tracking.ErrInvalidIdentity) {
			common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to start tracking", "order_id", id.OrderID, "error", err)
		common.WriteErrorResponse(w, "failed to start tracking", http.StatusInternalServerError)
		return
	}

	common.WriteJSONResponse(w, rr.tracker.Status(), http.StatusAccepted)
}

// stopTracking handles POST /v1/tracking/stop
func (rr *Routes) stopTracking(w http.ResponseWriter, _ *http.Request) {
	rr.tracker.Stop()
	common.WriteJSONResponse(w, rr.tracker.Status(), http.StatusOK)
}

// trackingStatus handles GET /v1/tracking/status
func (rr *Routes) trackingStatus(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, rr.tracker.Status(), http.StatusOK)
}

// recordPosition handles POST /v1/position
func (rr *Routes) recordPosition(w http.ResponseWriter, r *http.Request) {
	if rr.fixes == nil {
		common.WriteErrorResponse(w, "position fixes are not accepted by this server", http.StatusNotImplemented)
		return
	}

	var req PositionRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		common.WriteErrorResponse(w, "latitude and longitude are required", http.StatusBadRequest)
		return
	}

	c := location.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := rr.fixes.Update(c); err != nil {
		if errors.Is(err, location.ErrInvalidCoordinates) {
			common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to record position fix", "error", err)
		common.WriteErrorResponse(w, "failed to record position", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// setLifecycle handles POST /v1/lifecycle
func (rr *Routes) setLifecycle(w http.ResponseWriter, r *http.Request) {
	if rr.lifecycle == nil {
		common.WriteErrorResponse(w, "lifecycle signals are not accepted by this server", http.StatusNotImplemented)
		return
	}

	var req LifecycleRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	state, err := lifecycle.ParseState(req.State)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	rr.lifecycle.Set(state)
	common.WriteJSONResponse(w, LifecycleResponse{State: state}, http.StatusOK)
}
