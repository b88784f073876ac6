// README: GPS handlers for batch intake and raw point reads.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitapp/internal/modules/gps"
	"fitapp/internal/types"
)

type GPSService interface {
	Ingest(ctx context.Context, samples []gps.Sample) (gps.IngestResult, error)
	Points(ctx context.Context, sessionID string) ([]gps.Sample, error)
	ListSessions(ctx context.Context, userID int64) ([]string, error)
}

type GPSHandler struct {
	gps GPSService
}

func NewGPSHandler(svc GPSService) *GPSHandler {
	return &GPSHandler{gps: svc}
}

type sampleReq struct {
	SessionID    string    `json:"session_id" binding:"required"`
	UserID       int64     `json:"user_id"`
	Timestamp    wireTime  `json:"timestamp"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Acceleration float64   `json:"acceleration"`
	LastEntry    bool      `json:"last_entry"`
	Activity     string    `json:"activity"`
}

type ingestResp struct {
	Stored   int      `json:"stored"`
	Sessions int      `json:"sessions"`
	Failed   []string `json:"failed,omitempty"`
}

// Ingest accepts a JSON array of samples. Callers may only upload their own
// samples unless they are admins.
func (h *GPSHandler) Ingest(c *gin.Context) {
	var req []sampleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	caller := callerOf(c)
	samples := make([]gps.Sample, 0, len(req))
	for _, r := range req {
		if !caller.CanAccess(r.UserID) {
			writeError(c, http.StatusForbidden, "cannot upload samples of another user")
			return
		}
		activity, err := types.ParseActivity(r.Activity)
		if err != nil {
			writeError(c, http.StatusBadRequest, "unknown activity "+r.Activity)
			return
		}
		samples = append(samples, gps.Sample{
			SessionID:    r.SessionID,
			UserID:       r.UserID,
			Timestamp:    time.Time(r.Timestamp),
			Latitude:     r.Latitude,
			Longitude:    r.Longitude,
			Acceleration: r.Acceleration,
			LastEntry:    r.LastEntry,
			Activity:     activity,
		})
	}

	res, err := h.gps.Ingest(c.Request.Context(), samples)
	if err != nil {
		writeGPSError(c, err)
		return
	}
	resp := ingestResp{Stored: res.Stored, Sessions: len(res.Sessions)}
	for _, id := range res.Sessions {
		if _, ok := res.Failed[id]; ok {
			resp.Failed = append(resp.Failed, id)
		}
	}
	writeJSON(c, http.StatusOK, resp)
}

// Points returns the session's raw samples. Access follows the user who
// recorded the session.
func (h *GPSHandler) Points(c *gin.Context) {
	sessionID := c.Param("session_id")
	caller := callerOf(c)

	points, err := h.gps.Points(c.Request.Context(), sessionID)
	if err != nil {
		writeGPSError(c, err)
		return
	}
	if len(points) == 0 {
		writeError(c, http.StatusNotFound, "session not found")
		return
	}
	if !caller.CanAccess(points[0].UserID) {
		writeError(c, http.StatusForbidden, "session belongs to another user")
		return
	}
	writeJSON(c, http.StatusOK, points)
}

// Sessions lists the caller's recording sessions, newest first.
func (h *GPSHandler) Sessions(c *gin.Context) {
	ids, err := h.gps.ListSessions(c.Request.Context(), callerOf(c).UserID)
	if err != nil {
		writeGPSError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, ids)
}

// GPX streams the session's points as a GPX 1.1 document.
func (h *GPSHandler) GPX(c *gin.Context) {
	sessionID := c.Param("session_id")
	caller := callerOf(c)

	points, err := h.gps.Points(c.Request.Context(), sessionID)
	if err != nil {
		writeGPSError(c, err)
		return
	}
	if len(points) == 0 {
		writeError(c, http.StatusNotFound, "session not found")
		return
	}
	if !caller.CanAccess(points[0].UserID) {
		writeError(c, http.StatusForbidden, "session belongs to another user")
		return
	}

	doc, err := gps.ExportGPX(sessionID, points)
	if err != nil {
		writeGPSError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+sessionID+`.gpx"`)
	c.Data(http.StatusOK, "application/gpx+xml", doc)
}
