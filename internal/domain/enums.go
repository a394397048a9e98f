package domain

// MediaKind identifies the downloaded document format.
type MediaKind string

const (
	MediaKindPDF   MediaKind = "pdf"
	MediaKindImage MediaKind = "image"
)

// Severity grades a fraud flag.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// NormalizeSeverity maps an arbitrary severity string to a known
// Severity, defaulting to medium. Model output is not trusted to use
// the exact vocabulary.
func NormalizeSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return Severity(s)
	default:
		return SeverityMedium
	}
}

// Recommendation is the discrete action suggested by the aggregated
// risk score.
type Recommendation string

const (
	RecommendationApprove Recommendation = "approve"
	RecommendationReview  Recommendation = "review"
	RecommendationReject  Recommendation = "reject"
)
