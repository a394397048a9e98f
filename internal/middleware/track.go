package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"billsight/internal/metrics"
)

// Track records request counts and latency into the stats collector.
func Track(stats *metrics.Stats) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latencyMs := float64(time.Since(start).Microseconds()) / 1000.0

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		stats.Record(endpoint, c.Writer.Status(), latencyMs)
	}
}
