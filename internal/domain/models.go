package domain

// LineItem is a single billed row extracted from one page.
// JSON names follow the external extraction contract.
type LineItem struct {
	ItemName     string  `json:"item_name"`
	ItemRate     float64 `json:"item_rate"`
	ItemQuantity float64 `json:"item_quantity"`
	ItemAmount   float64 `json:"item_amount"`
}

// PageItems groups the line items extracted from one page.
type PageItems struct {
	PageNo    string     `json:"page_no"`
	PageType  string     `json:"page_type"`
	BillItems []LineItem `json:"bill_items"`
}

// TokenUsage counts model tokens consumed by one or more adapter calls.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add accumulates another usage record element-wise.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// PageFailure records a page that could not be processed. The document
// is still considered successful unless every page failed.
type PageFailure struct {
	PageNo int    `json:"page_no"`
	Reason string `json:"reason"`
}

// ExtractionResult is the document-level outcome of the page
// extraction pipeline: per-page items in page-index order plus
// reconciled totals and accumulated token usage.
type ExtractionResult struct {
	PagewiseLineItems []PageItems   `json:"pagewise_line_items"`
	TotalItemCount    int           `json:"total_item_count"`
	ReconciledAmount  float64       `json:"reconciled_amount"`
	TokenUsage        TokenUsage    `json:"token_usage"`
	PageFailures      []PageFailure `json:"page_failures,omitempty"`
}

// SignalEvidence is one supporting observation behind a fraud signal.
// It is advisory only and never feeds back into scoring.
type SignalEvidence struct {
	Location string  `json:"location"`
	Metric   float64 `json:"metric"`
}

// FraudSignal is a single detector's normalized confidence that the
// assessed page is fraudulent. Score is always within [0,1].
type FraudSignal struct {
	Name     string           `json:"name"`
	Score    float64          `json:"score"`
	Evidence []SignalEvidence `json:"evidence,omitempty"`
}

// FraudFlag is a user-facing finding derived from one or more signals.
type FraudFlag struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
}

// FraudAssessment is the aggregated verdict over all signals.
// It is never mutated after creation.
type FraudAssessment struct {
	FraudFlags       []FraudFlag    `json:"fraud_flags"`
	OverallRiskScore float64        `json:"overall_risk_score"`
	Recommendation   Recommendation `json:"recommendation"`
}
