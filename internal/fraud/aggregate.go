package fraud

import (
	"math"

	"billsight/internal/config"
	"billsight/internal/domain"
)

// Policy is the signal combination policy. Weights come from
// configuration and fall back to the documented defaults.
type Policy struct {
	WhiteningWeight    float64
	FontWeight         float64
	ManipulationWeight float64
	MathWeight         float64
	MathErrorCap       int
	ApproveBelow       float64
	RejectAt           float64
}

// DefaultPolicy returns the documented default combination policy.
func DefaultPolicy() Policy {
	return Policy{
		WhiteningWeight:    0.30,
		FontWeight:         0.20,
		ManipulationWeight: 0.25,
		MathWeight:         0.15,
		MathErrorCap:       3,
		ApproveBelow:       0.30,
		RejectAt:           0.70,
	}
}

// PolicyFromConfig builds a Policy from configuration, falling back
// to defaults for unset values.
func PolicyFromConfig(cfg *config.FraudConfig) Policy {
	p := Policy{
		WhiteningWeight:    cfg.WhiteningWeight,
		FontWeight:         cfg.FontWeight,
		ManipulationWeight: cfg.ManipulationWeight,
		MathWeight:         cfg.MathWeight,
		MathErrorCap:       cfg.MathErrorCap,
		ApproveBelow:       cfg.ApproveBelow,
		RejectAt:           cfg.RejectAt,
	}
	def := DefaultPolicy()
	if p.MathErrorCap <= 0 {
		p.MathErrorCap = def.MathErrorCap
	}
	if p.ApproveBelow <= 0 || p.RejectAt <= p.ApproveBelow || p.RejectAt > 1 {
		p.ApproveBelow = def.ApproveBelow
		p.RejectAt = def.RejectAt
	}
	return p
}

func (p Policy) weightFor(key string) float64 {
	switch key {
	case SignalWhitening:
		return p.WhiteningWeight
	case SignalFont:
		return p.FontWeight
	case SignalManipulation:
		return p.ManipulationWeight
	case SignalMath:
		return p.MathWeight
	default:
		return 0
	}
}

// Recommend maps a risk score to the discrete recommendation. The
// mapping is total and depends on the score alone.
func (p Policy) Recommend(score float64) domain.Recommendation {
	switch {
	case score < p.ApproveBelow:
		return domain.RecommendationApprove
	case score < p.RejectAt:
		return domain.RecommendationReview
	default:
		return domain.RecommendationReject
	}
}

// Aggregate folds the technical detections and the AI visual
// detection into one assessment. It never fails: an absent or neutral
// signal simply contributes zero. Output is deterministic — identical
// inputs yield byte-identical assessments.
func Aggregate(policy Policy, technical []Detection, ai Detection) domain.FraudAssessment {
	var technicalRisk float64
	mathTriggered := false
	for _, det := range technical {
		weight := policy.weightFor(det.Signal.Name)
		score := clamp01(det.Signal.Score)
		if det.Signal.Name == SignalMath && score > 0 {
			mathTriggered = true
			// Each confirmed arithmetic error contributes the full
			// math weight, capped so a long garbled bill cannot push
			// the score past meaning.
			n := MathErrorCount(det)
			if n > policy.MathErrorCap {
				n = policy.MathErrorCap
			}
			technicalRisk += weight * float64(n) * score
			continue
		}
		technicalRisk += weight * score
	}

	overall := clamp01((clamp01(ai.Signal.Score) + technicalRisk) / 2)
	if mathTriggered && overall < policy.ApproveBelow {
		// A confirmed math error is exact evidence: alone it must
		// force at least a review.
		overall = policy.ApproveBelow
	}
	overall = math.Round(overall*1000) / 1000

	flags := make([]domain.FraudFlag, 0, len(ai.Flags))
	type flagKey struct{ typ, loc string }
	seen := make(map[flagKey]bool)
	appendFlags := func(fs []domain.FraudFlag) {
		for _, f := range fs {
			k := flagKey{f.Type, f.Location}
			if seen[k] {
				continue
			}
			seen[k] = true
			flags = append(flags, f)
		}
	}
	appendFlags(ai.Flags)
	for _, det := range technical {
		appendFlags(det.Flags)
	}

	return domain.FraudAssessment{
		FraudFlags:       flags,
		OverallRiskScore: overall,
		Recommendation:   policy.Recommend(overall),
	}
}
