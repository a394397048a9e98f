package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"

	"billsight/internal/domain"
	"billsight/internal/imgproc"
	"billsight/internal/port"
)

// preprocessPage enhances one raw page and encodes it for the vision
// model. Both services run pages through here so the detectors and
// the model always see the same derived image.
func preprocessPage(page image.Image) (*image.RGBA, []byte, error) {
	pre, err := imgproc.Preprocess(page)
	if err != nil {
		return nil, nil, err
	}
	encoded, err := imgproc.EncodePNG(pre)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: encoding page: %v", domain.ErrPreprocessFailed, err)
	}
	return pre, encoded, nil
}

// analyzeExtract runs the extraction task for one preprocessed page
// and validates the model's response against the line-item schema.
func analyzeExtract(ctx context.Context, model port.VisionModel, imagePNG []byte) ([]domain.LineItem, domain.TokenUsage, error) {
	out, err := model.Analyze(ctx, port.AnalyzeInput{ImagePNG: imagePNG, Task: port.TaskExtract})
	if err != nil {
		return nil, domain.TokenUsage{}, fmt.Errorf("%w: %v", domain.ErrModelInvocation, err)
	}
	items, err := parseBillItems(out.RawJSON)
	if err != nil {
		return nil, domain.TokenUsage{}, err
	}
	return items, out.Usage, nil
}

// parseBillItems decodes a per-page extraction payload, applying the
// line-item defaulting rules and rejecting rows that cannot be items.
func parseBillItems(raw json.RawMessage) ([]domain.LineItem, error) {
	var payload struct {
		BillItems []struct {
			ItemName     string   `json:"item_name"`
			ItemRate     *float64 `json:"item_rate"`
			ItemQuantity *float64 `json:"item_quantity"`
			ItemAmount   *float64 `json:"item_amount"`
		} `json:"bill_items"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSchemaValidation, err)
	}

	items := make([]domain.LineItem, 0, len(payload.BillItems))
	for _, row := range payload.BillItems {
		name := strings.TrimSpace(row.ItemName)
		if name == "" || isTotalLabel(name) {
			continue
		}
		if row.ItemRate == nil && row.ItemAmount == nil {
			continue
		}

		qty := 1.0
		if row.ItemQuantity != nil && *row.ItemQuantity > 0 {
			qty = *row.ItemQuantity
		}
		var rate, amount float64
		switch {
		case row.ItemRate != nil && row.ItemAmount != nil:
			rate, amount = *row.ItemRate, *row.ItemAmount
		case row.ItemRate != nil:
			rate = *row.ItemRate
			amount = rate * qty
		default:
			// Rate missing: mirror the extraction rule of using the
			// line amount as the rate.
			amount = *row.ItemAmount
			rate = amount
		}
		if rate < 0 || amount < 0 {
			continue
		}

		items = append(items, domain.LineItem{
			ItemName:     name,
			ItemRate:     rate,
			ItemQuantity: qty,
			ItemAmount:   amount,
		})
	}
	return items, nil
}

// totalLabels are row names that are page or document totals, which
// must never be counted as line items.
var totalLabels = map[string]bool{
	"total":          true,
	"subtotal":       true,
	"sub total":      true,
	"sub-total":      true,
	"grand total":    true,
	"net total":      true,
	"total amount":   true,
	"amount payable": true,
}

func isTotalLabel(name string) bool {
	n := strings.ToLower(strings.Join(strings.Fields(name), " "))
	n = strings.TrimSuffix(n, ":")
	return totalLabels[n] || strings.HasSuffix(n, " total")
}

// failureReason maps a per-page error to its stable reason string.
func failureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrPreprocessFailed):
		return "preprocess_failed"
	case errors.Is(err, domain.ErrModelInvocation):
		return "model_invocation_failed"
	case errors.Is(err, domain.ErrSchemaValidation):
		return "schema_validation_failed"
	default:
		return "failed"
	}
}
