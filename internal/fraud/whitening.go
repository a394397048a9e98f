package fraud

import (
	"context"
	"fmt"
	"image"

	"billsight/internal/domain"
	"billsight/internal/imgproc"
)

// Whitening detection thresholds. A correction-fluid patch is an
// abnormally bright region that erased the printed structure
// underneath, so it shows almost no edges.
const (
	whiteningBrightness   = 245
	whiteningMinArea      = 50
	whiteningMaxArea      = 5000
	whiteningEdgeDensity  = 0.05
	whiteningHighDensity  = 0.02
	whiteningFullFraction = 0.02 // suspicious area fraction mapping to score 1.0
)

// WhiteningDetector flags whiteout/correction-fluid patches: bright
// regions with low local edge density.
type WhiteningDetector struct{}

func (d *WhiteningDetector) Key() string { return SignalWhitening }

func (d *WhiteningDetector) Detect(_ context.Context, page *image.RGBA, _ []domain.LineItem) Detection {
	det := Detection{Signal: domain.FraudSignal{Name: SignalWhitening}}
	if page == nil {
		return det
	}

	gray := imgproc.Grayscale(page)
	mask := imgproc.ThresholdAbove(gray, whiteningBrightness)

	pageArea := page.Bounds().Dx() * page.Bounds().Dy()
	if pageArea == 0 {
		return det
	}

	suspiciousArea := 0
	for _, region := range imgproc.Regions(mask) {
		if region.Area <= whiteningMinArea || region.Area >= whiteningMaxArea {
			continue
		}
		density := imgproc.EdgeDensity(gray, region.Rect)
		if density >= whiteningEdgeDensity {
			continue
		}

		suspiciousArea += region.Area
		severity := domain.SeverityMedium
		if density < whiteningHighDensity {
			severity = domain.SeverityHigh
		}
		loc := fmt.Sprintf("x:%d, y:%d, width:%d, height:%d",
			region.Rect.Min.X, region.Rect.Min.Y, region.Rect.Dx(), region.Rect.Dy())
		det.Signal.Evidence = append(det.Signal.Evidence, domain.SignalEvidence{
			Location: loc,
			Metric:   density,
		})
		det.Flags = append(det.Flags, domain.FraudFlag{
			Type:     "whitening_detected",
			Severity: severity,
			Description: fmt.Sprintf(
				"Whiteout/correction fluid detected at %s (area: %d pixels, edge density: %.4f)",
				loc, region.Area, density),
			Location: loc,
		})
	}

	fraction := float64(suspiciousArea) / float64(pageArea)
	det.Signal.Score = clamp01(fraction / whiteningFullFraction)
	return det
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
