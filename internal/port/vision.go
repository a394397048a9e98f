package port

import (
	"context"
	"encoding/json"

	"billsight/internal/domain"
)

// VisionTask selects the analysis the model should perform.
type VisionTask string

const (
	TaskExtract VisionTask = "extract"
	TaskFraud   VisionTask = "fraud"
)

// AnalyzeInput carries one page image and the task to run against it.
type AnalyzeInput struct {
	ImagePNG []byte
	Task     VisionTask
}

// AnalyzeOutput contains the structured result from a vision model
// call together with the tokens it consumed.
type AnalyzeOutput struct {
	RawJSON   json.RawMessage
	Usage     domain.TokenUsage
	ModelUsed string
}

// VisionModel abstracts the hosted vision-language model. Retries and
// provider fallback happen behind this interface; callers see either a
// parsed result or a single failure.
type VisionModel interface {
	Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeOutput, error)
}
