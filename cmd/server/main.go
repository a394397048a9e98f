package main

import (
	"fmt"
	"log"

	"billsight/internal/config"
	"billsight/internal/fetch"
	"billsight/internal/fraud"
	"billsight/internal/handler"
	"billsight/internal/metrics"
	"billsight/internal/port"
	"billsight/internal/raster"
	"billsight/internal/router"
	"billsight/internal/service"
	"billsight/internal/vision"
	"billsight/internal/vision/gemini"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Register vision providers
	vision.RegisterProvider("gemini", func(pc *config.VisionProviderConfig) (port.VisionModel, error) {
		return gemini.NewVision(pc), nil
	})

	visionModel, err := vision.Build(&cfg.Vision)
	if err != nil {
		return fmt.Errorf("failed to build vision model: %w", err)
	}

	stats := metrics.NewStats()
	fetcher := fetch.NewDownloader(&cfg.Fetcher)
	converter := raster.NewConverter(&cfg.Fetcher)
	detectors := fraud.DefaultRegistry()
	policy := fraud.PolicyFromConfig(&cfg.Fraud)

	// Initialize services
	extractionSvc := service.NewExtractionService(fetcher, converter, visionModel)
	fraudSvc := service.NewFraudService(fetcher, converter, visionModel, detectors, policy)

	// Initialize handlers
	billH := handler.NewBillHandler(extractionSvc, fraudSvc)
	healthH := handler.NewHealthHandler(stats, cfg.Vision.PrimaryConfig().DefaultModel)
	metricsH := handler.NewMetricsHandler(stats)

	// Setup router
	r := router.Setup(cfg, stats, billH, healthH, metricsH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
