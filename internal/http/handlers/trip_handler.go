// README: Trip handlers for summary fetches, persisted trip listing and activity types.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"fitapp/internal/modules/trip"
	"fitapp/internal/types"
)

type TripService interface {
	GetTrip(ctx context.Context, caller trip.Caller, sessionID string) (*trip.View, error)
	ListTrips(ctx context.Context, userID int64) ([]trip.Trip, error)
}

type TripHandler struct {
	trips TripService
}

func NewTripHandler(svc TripService) *TripHandler {
	return &TripHandler{trips: svc}
}

func (h *TripHandler) Get(c *gin.Context) {
	view, err := h.trips.GetTrip(c.Request.Context(), callerOf(c), c.Param("session_id"))
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, view)
}

// Summaries lists the caller's persisted trips with their summaries.
func (h *TripHandler) Summaries(c *gin.Context) {
	trips, err := h.trips.ListTrips(c.Request.Context(), callerOf(c).UserID)
	if err != nil {
		writeTripError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, trips)
}

func (h *TripHandler) ActivityTypes(c *gin.Context) {
	out := make(map[string]int, len(types.Activities))
	for _, a := range types.Activities {
		out[string(a)] = a.Code()
	}
	writeJSON(c, http.StatusOK, out)
}
