package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"billsight/internal/config"
	"billsight/internal/domain"
	"billsight/internal/port"
	"billsight/internal/vision"
)

const (
	apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

	maxOutputTokens = 8192
	temperature     = 0.1

	// Usage estimate constants for responses without usage metadata:
	// roughly four characters per text token plus a flat per-image cost.
	estCharsPerToken = 4
	estImageTokens   = 258
)

// Vision implements port.VisionModel using Google's Gemini API.
type Vision struct {
	apiKey     string
	model      string
	endpoint   string
	maxRetries int
	client     *http.Client
}

// NewVision creates a Gemini-backed vision model.
func NewVision(cfg *config.VisionProviderConfig) *Vision {
	return newVision(cfg, "")
}

// NewVisionWithEndpoint creates a model pointing at a custom API
// endpoint (for testing).
func NewVisionWithEndpoint(cfg *config.VisionProviderConfig, endpoint string) *Vision {
	return newVision(cfg, endpoint)
}

func newVision(cfg *config.VisionProviderConfig, endpoint string) *Vision {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Vision{
		apiKey:     cfg.APIKey,
		model:      model,
		endpoint:   endpoint,
		maxRetries: cfg.MaxRetries,
		client:     &http.Client{Timeout: timeout},
	}
}

func (v *Vision) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.AnalyzeOutput, error) {
	prompt := vision.PromptFor(input.Task)
	encoded := base64.StdEncoding.EncodeToString(input.ImagePNG)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{
						"inline_data": map[string]interface{}{
							"mime_type": "image/png",
							"data":      encoded,
						},
					},
					{
						"text": prompt,
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  maxOutputTokens,
			"temperature":      temperature,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	// Transient failures (network, 5xx) are retried here; the
	// orchestrator only ever sees the final outcome.
	var lastErr error
	for attempt := 0; attempt <= v.maxRetries; attempt++ {
		out, retryable, err := v.call(ctx, bodyBytes, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (v *Vision) call(ctx context.Context, body []byte, prompt string) (*port.AnalyzeOutput, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := vision.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
		return nil, false, vision.NewRateLimitError("gemini",
			fmt.Errorf("gemini API error (status %d)", resp.StatusCode), retryAfter)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, true, fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	out, err := v.parseResponse(respBody, prompt)
	if err != nil {
		return nil, false, err
	}
	return out, false, nil
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (v *Vision) parseResponse(body []byte, prompt string) (*port.AnalyzeOutput, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from API: no candidates")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from API: no parts")
	}

	text := vision.StripCodeFences(resp.Candidates[0].Content.Parts[0].Text)
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("model output is not valid JSON: %s", truncate(text, 200))
	}

	usage := domain.TokenUsage{
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		TotalTokens:  resp.UsageMetadata.TotalTokenCount,
	}
	if usage.TotalTokens == 0 {
		usage.InputTokens = len(prompt)/estCharsPerToken + estImageTokens
		usage.OutputTokens = len(text) / estCharsPerToken
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}

	return &port.AnalyzeOutput{
		RawJSON:   json.RawMessage(text),
		Usage:     usage,
		ModelUsed: v.model,
	}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
