package vision_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"billsight/internal/config"
	"billsight/internal/port"
	"billsight/internal/vision"
	"billsight/internal/vision/gemini"
)

func geminiBody(text string, promptTokens, candTokens int) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]any{
			"promptTokenCount":     promptTokens,
			"candidatesTokenCount": candTokens,
			"totalTokenCount":      promptTokens + candTokens,
		},
	}
}

func newGemini(endpoint string, maxRetries int) *gemini.Vision {
	return gemini.NewVisionWithEndpoint(&config.VisionProviderConfig{
		Provider:     "gemini",
		APIKey:       "test-key",
		DefaultModel: "gemini-2.0-flash",
		MaxRetries:   maxRetries,
		TimeoutSecs:  5,
	}, endpoint)
}

func TestGeminiVision_RequestShape(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(geminiBody(`{"bill_items": []}`, 100, 10))
	}))
	defer srv.Close()

	out, err := newGemini(srv.URL, 0).Analyze(context.Background(), port.AnalyzeInput{
		ImagePNG: []byte("png-bytes"),
		Task:     port.TaskExtract,
	})
	assert.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", out.ModelUsed)

	contents := captured["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	assert.Len(t, parts, 2)
	inline := parts[0].(map[string]any)["inline_data"].(map[string]any)
	assert.Equal(t, "image/png", inline["mime_type"])
	assert.NotEmpty(t, parts[1].(map[string]any)["text"])

	genCfg := captured["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", genCfg["responseMimeType"])
}

func TestGeminiVision_ReportsUsageMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiBody(`{"bill_items": []}`, 1200, 48))
	}))
	defer srv.Close()

	out, err := newGemini(srv.URL, 0).Analyze(context.Background(), port.AnalyzeInput{Task: port.TaskExtract})
	assert.NoError(t, err)

	assert.Equal(t, 1200, out.Usage.InputTokens)
	assert.Equal(t, 48, out.Usage.OutputTokens)
	assert.Equal(t, 1248, out.Usage.TotalTokens)
}

func TestGeminiVision_EstimatesUsageWhenMetadataMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiBody(`{"bill_items": []}`, 0, 0))
	}))
	defer srv.Close()

	out, err := newGemini(srv.URL, 0).Analyze(context.Background(), port.AnalyzeInput{Task: port.TaskExtract})
	assert.NoError(t, err)

	// Estimate includes the flat per-image token cost.
	assert.Greater(t, out.Usage.InputTokens, 258)
	assert.Equal(t, out.Usage.InputTokens+out.Usage.OutputTokens, out.Usage.TotalTokens)
}

func TestGeminiVision_StripsCodeFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiBody("```json\n{\"bill_items\": []}\n```", 10, 5))
	}))
	defer srv.Close()

	out, err := newGemini(srv.URL, 0).Analyze(context.Background(), port.AnalyzeInput{Task: port.TaskExtract})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"bill_items": []}`, string(out.RawJSON))
}

func TestGeminiVision_RejectsNonJSONOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiBody("I could not read the bill, sorry.", 10, 5))
	}))
	defer srv.Close()

	_, err := newGemini(srv.URL, 0).Analyze(context.Background(), port.AnalyzeInput{Task: port.TaskExtract})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestGeminiVision_RateLimitIsTyped(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newGemini(srv.URL, 3).Analyze(context.Background(), port.AnalyzeInput{Task: port.TaskFraud})

	var rlErr *vision.RateLimitError
	assert.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "gemini", rlErr.Provider)
	assert.Equal(t, 30.0, rlErr.RetryAfter.Seconds())
	// Rate limits are not retried locally; the fallback layer decides.
	assert.Equal(t, 1, calls)
}

func TestGeminiVision_RetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(geminiBody(`{"bill_items": []}`, 10, 5))
	}))
	defer srv.Close()

	out, err := newGemini(srv.URL, 2).Analyze(context.Background(), port.AnalyzeInput{Task: port.TaskExtract})
	assert.NoError(t, err)
	assert.NotNil(t, out)
	assert.Equal(t, 3, calls)
}

func TestGeminiVision_DoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newGemini(srv.URL, 3).Analyze(context.Background(), port.AnalyzeInput{Task: port.TaskExtract})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
