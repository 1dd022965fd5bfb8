package middleware

import (
	"net/http"
	"time"

	"pairstat/internal"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs method, path, status and latency of every request
func RequestLogger(logger *internal.Logger) gin.HandlerFunc {
	logger = logger.With("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := float64(time.Since(start).Nanoseconds()) / 1e6
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("%s %s -> %d (%.2fms)", c.Request.Method, c.Request.URL.Path, status, latency)
		case status >= http.StatusBadRequest:
			logger.Warn("%s %s -> %d (%.2fms)", c.Request.Method, c.Request.URL.Path, status, latency)
		default:
			logger.Debug("%s %s -> %d (%.2fms)", c.Request.Method, c.Request.URL.Path, status, latency)
		}
	}
}

// LimitBody caps request bodies at limit bytes. Reads past the limit fail
// with *http.MaxBytesError.
func LimitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
