// README: Request logging middleware; tags every request with an X-Request-ID.
package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		log.Printf("%s %s %d %s request_id=%s user_id=%d",
			c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start), id, CallerUserID(c))
	}
}
