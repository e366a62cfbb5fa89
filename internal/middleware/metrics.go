package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver records per-request HTTP metrics.
type RequestObserver interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

// unmatchedPath labels requests that hit no route so raw URLs never become
// label values.
const unmatchedPath = "unmatched"

// Metrics returns middleware that records request metrics on the observer.
func Metrics(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if observer == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		observer.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
