package fraud

import (
	"context"
	"fmt"
	"image"
	"math"

	"billsight/internal/domain"
	"billsight/internal/imgproc"
)

// Stroke-width analysis thresholds. A page set in one font family has
// near-uniform stroke widths; pasted or retyped entries raise the
// coefficient of variation.
const (
	fontMinRegionArea  = 100
	fontMaxRegionArea  = 10000
	fontMinRegions     = 6
	fontMediumCV       = 0.30
	fontHighCV         = 0.50
	fontFullCV         = 0.70 // CV mapping to score 1.0
	fontBinarizeWindow = 11
	fontBinarizeBias   = 2.0
)

// FontDetector estimates per-glyph stroke width across text regions
// and scores the variation between them.
type FontDetector struct{}

func (d *FontDetector) Key() string { return SignalFont }

func (d *FontDetector) Detect(_ context.Context, page *image.RGBA, _ []domain.LineItem) Detection {
	det := Detection{Signal: domain.FraudSignal{Name: SignalFont}}
	if page == nil {
		return det
	}

	gray := imgproc.Grayscale(page)
	ink := imgproc.BinarizeAdaptive(gray, fontBinarizeWindow, fontBinarizeBias)

	var widths []float64
	for _, region := range imgproc.Regions(ink) {
		if region.Area <= fontMinRegionArea || region.Area >= fontMaxRegionArea {
			continue
		}
		h := region.Rect.Dy()
		if h == 0 {
			continue
		}
		widths = append(widths, float64(region.Area)/float64(h))
	}
	if len(widths) < fontMinRegions {
		return det
	}

	mean, std := meanStddev(widths)
	if mean == 0 {
		return det
	}
	cv := std / mean
	if cv <= fontMediumCV {
		return det
	}

	det.Signal.Score = clamp01((cv - fontMediumCV) / (fontFullCV - fontMediumCV))
	det.Signal.Evidence = []domain.SignalEvidence{{
		Location: fmt.Sprintf("%d text regions", len(widths)),
		Metric:   cv,
	}}

	severity := domain.SeverityMedium
	if cv >= fontHighCV {
		severity = domain.SeverityHigh
	}
	det.Flags = []domain.FraudFlag{{
		Type:     "font_inconsistency",
		Severity: severity,
		Description: fmt.Sprintf(
			"Font inconsistency detected. Stroke width variation: %.3f (mean: %.2f, std: %.2f)",
			cv, mean, std),
		Location: fmt.Sprintf("Analyzed %d text regions", len(widths)),
	}}
	return det
}

func meanStddev(vals []float64) (mean, std float64) {
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		std += (v - mean) * (v - mean)
	}
	std = math.Sqrt(std / float64(len(vals)))
	return mean, std
}
