package fraud

import (
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"billsight/internal/domain"
)

// Arithmetic check constants, in currency units.
const (
	mathTolerance    = 0.10
	mathHighSeverity = 10.0
)

// MathDetector verifies that each line item's amount equals
// rate x quantity. The signal is exact: 1.0 when any item is off by
// more than the tolerance, otherwise 0.0 — it never degrades to
// partial confidence. Duplicated item names are flagged as a side
// finding without affecting the score.
type MathDetector struct{}

func (d *MathDetector) Key() string { return SignalMath }

func (d *MathDetector) Detect(_ context.Context, _ *image.RGBA, items []domain.LineItem) Detection {
	det := Detection{Signal: domain.FraudSignal{Name: SignalMath}}

	seen := make(map[string]bool, len(items))
	for idx, item := range items {
		location := fmt.Sprintf("line item %d", idx+1)

		expected := item.ItemRate * item.ItemQuantity
		diff := math.Abs(item.ItemAmount - expected)
		if diff > mathTolerance {
			det.Signal.Score = 1.0
			det.Signal.Evidence = append(det.Signal.Evidence, domain.SignalEvidence{
				Location: location,
				Metric:   diff,
			})
			severity := domain.SeverityMedium
			if diff > mathHighSeverity {
				severity = domain.SeverityHigh
			}
			det.Flags = append(det.Flags, domain.FraudFlag{
				Type:     "math_error",
				Severity: severity,
				Description: fmt.Sprintf(
					"Mathematical error in %q: stated %.2f but calculated %.2f (difference: %.2f)",
					item.ItemName, item.ItemAmount, round2(expected), round2(diff)),
				Location: location,
			})
		}

		name := strings.ToLower(strings.TrimSpace(item.ItemName))
		if name != "" && seen[name] {
			det.Flags = append(det.Flags, domain.FraudFlag{
				Type:        "duplicate_items",
				Severity:    domain.SeverityMedium,
				Description: fmt.Sprintf("Duplicate item detected: %q", item.ItemName),
				Location:    location,
			})
		}
		seen[name] = true
	}

	return det
}

// MathErrorCount reports how many arithmetic discrepancies a math
// detection found. The aggregator scales the math weight by it.
func MathErrorCount(det Detection) int {
	return len(det.Signal.Evidence)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
