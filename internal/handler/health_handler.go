package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"billsight/internal/metrics"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	stats *metrics.Stats
	model string
}

// NewHealthHandler creates a new HealthHandler. model is the vision
// model name reported in the health payload.
func NewHealthHandler(stats *metrics.Stats, model string) *HealthHandler {
	return &HealthHandler{stats: stats, model: model}
}

// Root handles GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"llm_model":      h.model,
		"uptime_seconds": h.stats.UptimeSeconds(),
	})
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
