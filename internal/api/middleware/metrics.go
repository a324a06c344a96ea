package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"eventfin.io/eventfin/internal/metrics"
)

// Metrics records request count and latency by route template. Unmatched
// routes are grouped under "unmatched" to keep label cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordAPIRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start).Seconds())
	}
}
