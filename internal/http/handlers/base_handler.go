// README: Base handler utilities (JSON helpers, caller resolution, error mapping).
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"fitapp/internal/http/middleware"
	"fitapp/internal/modules/gps"
	"fitapp/internal/modules/trip"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func callerOf(c *gin.Context) trip.Caller {
	return trip.Caller{UserID: middleware.CallerUserID(c), Admin: middleware.CallerIsAdmin(c)}
}

func writeGPSError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gps.ErrValidation):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, gps.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, gps.ErrStorageWrite), errors.Is(err, gps.ErrStorageRead):
		log.Printf("gps handler: %v", err)
		writeError(c, http.StatusServiceUnavailable, "gps storage unavailable")
	default:
		log.Printf("gps handler: %v", err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeTripError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trip.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, trip.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, gps.ErrStorageRead):
		log.Printf("trip handler: %v", err)
		writeError(c, http.StatusServiceUnavailable, "gps storage unavailable")
	default:
		log.Printf("trip handler: %v", err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
