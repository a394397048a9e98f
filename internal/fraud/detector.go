package fraud

import (
	"context"
	"image"

	"golang.org/x/sync/errgroup"

	"billsight/internal/domain"
)

// Signal names. The AI signal is produced by the fraud service from
// the vision model's observations, not by a registered detector.
const (
	SignalWhitening    = "whitening"
	SignalFont         = "font_inconsistency"
	SignalManipulation = "digital_manipulation"
	SignalMath         = "math_consistency"
	SignalAIVisual     = "ai_visual"
)

// Detection is one detector's complete output: the normalized signal
// plus the user-facing flags derived from it.
type Detection struct {
	Signal domain.FraudSignal
	Flags  []domain.FraudFlag
}

// Detector analyzes one preprocessed page for a single fraud
// indicator. Implementations are pure: they never fail, never mutate
// their inputs, and may run concurrently with each other.
type Detector interface {
	Key() string
	Detect(ctx context.Context, page *image.RGBA, items []domain.LineItem) Detection
}

// Registry holds detectors in registration order. Order is stable so
// aggregated output is deterministic.
type Registry struct {
	detectors []Detector
	byKey     map[string]Detector
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]Detector)}
}

// Register adds a detector. A detector registered twice under the
// same key replaces the earlier entry.
func (r *Registry) Register(d Detector) {
	if _, ok := r.byKey[d.Key()]; !ok {
		r.detectors = append(r.detectors, d)
	} else {
		for i, existing := range r.detectors {
			if existing.Key() == d.Key() {
				r.detectors[i] = d
			}
		}
	}
	r.byKey[d.Key()] = d
}

// Get returns the detector for a key, or nil if not registered.
func (r *Registry) Get(key string) Detector {
	return r.byKey[key]
}

// All returns the registered detectors in registration order.
func (r *Registry) All() []Detector {
	return r.detectors
}

// DetectAll runs every registered detector concurrently and returns
// their detections in registration order.
func (r *Registry) DetectAll(ctx context.Context, page *image.RGBA, items []domain.LineItem) []Detection {
	detections := make([]Detection, len(r.detectors))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range r.detectors {
		g.Go(func() error {
			detections[i] = d.Detect(gctx, page, items)
			return nil
		})
	}
	_ = g.Wait() // detectors never return errors
	return detections
}

// DefaultRegistry returns a registry with all built-in detectors.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&WhiteningDetector{})
	r.Register(&FontDetector{})
	r.Register(&ManipulationDetector{})
	r.Register(&MathDetector{})
	return r
}
