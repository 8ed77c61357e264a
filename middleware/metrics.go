package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"coco-admissions-platform/internal/telemetry"
)

// Metrics records request count and latency per method, route and status.
func Metrics(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordRequest(c.Request.Method, path,
			strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
