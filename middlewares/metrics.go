package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bookkeys/bookkeys/utils/metrics"
)

// MetricsMiddleware counts HTTP requests by method and status.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		metrics.Default.HTTPRequests.WithLabelValues(
			c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
