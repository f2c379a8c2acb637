package logger_middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookkeys/bookkeys/logger"
)

// GinLogger logs each request through the shared logrus loggers.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status >= 500 {
			logger.ErrorLogger.Errorf("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
			return
		}
		logger.InfoLogger.Infof("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
	}
}
