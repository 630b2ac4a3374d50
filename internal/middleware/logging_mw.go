package middleware

import (
	"time"

	"voting_rooms/internal/logging"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per completed request
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log.Info(c.Request.Context(), "request completed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", c.ClientIP(),
		)
	}
}
