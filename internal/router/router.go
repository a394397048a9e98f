package router

import (
	"github.com/gin-gonic/gin"

	"billsight/internal/config"
	"billsight/internal/handler"
	"billsight/internal/metrics"
	"billsight/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	stats *metrics.Stats,
	billH *handler.BillHandler,
	healthH *handler.HealthHandler,
	metricsH *handler.MetricsHandler,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Track(stats))

	// Health checks
	r.GET("/", healthH.Root)
	r.GET("/healthz", healthH.Liveness)

	// Service statistics
	r.GET("/metrics", metricsH.GetMetrics)

	// Bill processing
	r.POST("/extract-bill-data", billH.ExtractBillData)
	r.POST("/detect-fraud", billH.DetectFraud)

	return r
}
