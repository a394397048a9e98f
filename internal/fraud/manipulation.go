package fraud

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"billsight/internal/domain"
	"billsight/internal/imgproc"
)

// Error-level analysis constants. Regions pasted into a JPEG respond
// differently to recompression than the rest of the image; pixels
// whose recompression error is far above the page norm mark them.
const (
	elaQuality        = 90
	elaSigmaFactor    = 2.0
	elaDetectFraction = 0.01
	elaHighFraction   = 0.05
)

// ManipulationDetector runs error-level analysis: it recompresses the
// page at a reference JPEG quality and scores the fraction of pixels
// with anomalous compression error.
type ManipulationDetector struct{}

func (d *ManipulationDetector) Key() string { return SignalManipulation }

func (d *ManipulationDetector) Detect(_ context.Context, page *image.RGBA, _ []domain.LineItem) Detection {
	det := Detection{Signal: domain.FraudSignal{Name: SignalManipulation}}
	if page == nil {
		return det
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, page, &jpeg.Options{Quality: elaQuality}); err != nil {
		return det
	}
	recompressed, err := jpeg.Decode(&buf)
	if err != nil {
		return det
	}
	recomp := imgproc.ToRGBA(recompressed)

	b := page.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 || recomp.Bounds() != b {
		return det
	}

	// Per-pixel mean absolute channel difference.
	diffs := make([]float64, 0, n)
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := page.PixOffset(x, y)
			j := recomp.PixOffset(x, y)
			var diff float64
			for c := 0; c < 3; c++ {
				diff += math.Abs(float64(page.Pix[i+c]) - float64(recomp.Pix[j+c]))
			}
			diff /= 3
			diffs = append(diffs, diff)
			sum += diff
		}
	}
	mean := sum / float64(n)
	var variance float64
	for _, diff := range diffs {
		variance += (diff - mean) * (diff - mean)
	}
	std := math.Sqrt(variance / float64(n))

	cutoff := mean + elaSigmaFactor*std
	suspicious := 0
	for _, diff := range diffs {
		if diff > cutoff {
			suspicious++
		}
	}
	fraction := float64(suspicious) / float64(n)

	det.Signal.Score = clamp01(fraction / elaHighFraction)
	det.Signal.Evidence = []domain.SignalEvidence{{
		Location: "Image-wide analysis",
		Metric:   fraction,
	}}
	if fraction <= elaDetectFraction {
		return det
	}

	severity := domain.SeverityMedium
	if fraction > elaHighFraction {
		severity = domain.SeverityHigh
	}
	det.Flags = []domain.FraudFlag{{
		Type:     "digital_manipulation",
		Severity: severity,
		Description: fmt.Sprintf(
			"Digital manipulation detected. Error level: %.2f, suspicious pixels: %.2f%%",
			mean, fraction*100),
		Location: "Image-wide analysis",
	}}
	return det
}
