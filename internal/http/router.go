// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitapp/internal/http/handlers"
	"fitapp/internal/http/middleware"
	"fitapp/internal/infra"
)

type RouterDeps struct {
	GPS      handlers.GPSService
	Trips    handlers.TripService
	Verifier infra.TokenVerifier
	Timeout  time.Duration
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())
	if deps.Timeout > 0 {
		r.Use(middleware.Timeout(deps.Timeout))
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api/v1", middleware.Auth(deps.Verifier))

	gpsHandler := handlers.NewGPSHandler(deps.GPS)
	api.POST("/gps", gpsHandler.Ingest)
	api.GET("/gps/points/:session_id", gpsHandler.Points)

	tripHandler := handlers.NewTripHandler(deps.Trips)
	api.GET("/trips", gpsHandler.Sessions)
	api.GET("/trips/:session_id", tripHandler.Get)
	api.GET("/trips/:session_id/gpx", gpsHandler.GPX)
	api.GET("/summaries", tripHandler.Summaries)
	api.GET("/activity_types", tripHandler.ActivityTypes)

	return r
}
