package service

import (
	"context"
	"encoding/json"
	"log"

	"golang.org/x/sync/errgroup"

	"billsight/internal/domain"
	"billsight/internal/fraud"
	"billsight/internal/port"
)

// FraudService assesses the first page of a document for signs of
// tampering, combining the vision model's judgement with the local
// image and arithmetic detectors.
type FraudService interface {
	DetectFromURL(ctx context.Context, url string) (*domain.FraudAssessment, error)
}

type fraudService struct {
	fetcher   port.DocumentFetcher
	raster    port.Rasterizer
	vision    port.VisionModel
	detectors *fraud.Registry
	policy    fraud.Policy
}

// NewFraudService creates a fraud service using the given detector
// registry and aggregation policy.
func NewFraudService(fetcher port.DocumentFetcher, raster port.Rasterizer, vision port.VisionModel, detectors *fraud.Registry, policy fraud.Policy) FraudService {
	return &fraudService{
		fetcher:   fetcher,
		raster:    raster,
		vision:    vision,
		detectors: detectors,
		policy:    policy,
	}
}

func (s *fraudService) DetectFromURL(ctx context.Context, url string) (*domain.FraudAssessment, error) {
	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	pages, err := s.raster.Rasterize(ctx, doc)
	if err != nil {
		return nil, err
	}

	// Assessment runs on the first page only.
	pre, encoded, err := preprocessPage(pages[0])
	if err != nil {
		return nil, err
	}

	// The AI assessment and the line-item extraction (which feeds the
	// math detector) are independent model calls; run them together.
	var (
		aiDetection fraud.Detection
		items       []domain.LineItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		aiDetection = s.analyzeFraud(gctx, encoded)
		return nil
	})
	g.Go(func() error {
		extracted, _, xerr := analyzeExtract(gctx, s.vision, encoded)
		if xerr != nil {
			// Without items the math detector simply has nothing to
			// check; the assessment still proceeds.
			log.Printf("service.FraudService: line-item extraction failed: %v", xerr)
			return nil
		}
		items = extracted
		return nil
	})
	_ = g.Wait()

	detections := s.detectors.DetectAll(ctx, pre, items)
	assessment := fraud.Aggregate(s.policy, detections, aiDetection)
	return &assessment, nil
}

// analyzeFraud runs the visual fraud task. Any failure degrades to a
// neutral signal so the technical detectors still produce a verdict.
func (s *fraudService) analyzeFraud(ctx context.Context, imagePNG []byte) fraud.Detection {
	neutral := fraud.Detection{Signal: domain.FraudSignal{Name: fraud.SignalAIVisual}}

	out, err := s.vision.Analyze(ctx, port.AnalyzeInput{ImagePNG: imagePNG, Task: port.TaskFraud})
	if err != nil {
		log.Printf("service.FraudService: visual assessment failed: %v", err)
		return neutral
	}

	var payload struct {
		FraudFlags []struct {
			Type        string `json:"type"`
			Severity    string `json:"severity"`
			Description string `json:"description"`
			Location    string `json:"location"`
		} `json:"fraud_flags"`
		OverallRiskScore float64 `json:"overall_risk_score"`
		Recommendation   string  `json:"recommendation"`
	}
	if err := json.Unmarshal(out.RawJSON, &payload); err != nil {
		log.Printf("service.FraudService: visual assessment payload invalid: %v", err)
		return neutral
	}

	det := fraud.Detection{
		Signal: domain.FraudSignal{
			Name:  fraud.SignalAIVisual,
			Score: payload.OverallRiskScore,
		},
	}
	for _, f := range payload.FraudFlags {
		det.Flags = append(det.Flags, domain.FraudFlag{
			Type:        f.Type,
			Severity:    domain.NormalizeSeverity(f.Severity),
			Description: f.Description,
			Location:    f.Location,
		})
	}
	return det
}
