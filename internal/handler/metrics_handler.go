package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"billsight/internal/metrics"
)

// MetricsHandler exposes service statistics.
type MetricsHandler struct {
	stats *metrics.Stats
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(stats *metrics.Stats) *MetricsHandler {
	return &MetricsHandler{stats: stats}
}

// GetMetrics handles GET /metrics
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"is_success": true,
		"data":       h.stats.Snapshot(),
	})
}
