package fraud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"billsight/internal/domain"
)

func TestMathDetector_CleanItems(t *testing.T) {
	d := &MathDetector{}
	items := []domain.LineItem{
		{ItemName: "Consultation", ItemRate: 500, ItemQuantity: 1, ItemAmount: 500},
		{ItemName: "X-Ray", ItemRate: 250, ItemQuantity: 2, ItemAmount: 500},
	}

	got := d.Detect(context.Background(), nil, items)

	assert.Equal(t, 0.0, got.Signal.Score)
	assert.Empty(t, got.Flags)
	assert.Equal(t, 0, MathErrorCount(got))
}

func TestMathDetector_WithinToleranceIsClean(t *testing.T) {
	d := &MathDetector{}
	// 0.05 off: rounding noise, not a discrepancy.
	items := []domain.LineItem{
		{ItemName: "Lab Panel", ItemRate: 333.35, ItemQuantity: 3, ItemAmount: 1000.00},
	}

	got := d.Detect(context.Background(), nil, items)

	assert.Equal(t, 0.0, got.Signal.Score)
	assert.Empty(t, got.Flags)
}

func TestMathDetector_DiscrepancyScoresExactlyOne(t *testing.T) {
	d := &MathDetector{}
	items := []domain.LineItem{
		{ItemName: "Consultation", ItemRate: 500, ItemQuantity: 1, ItemAmount: 500},
		{ItemName: "MRI Scan", ItemRate: 4000, ItemQuantity: 1, ItemAmount: 4005},
	}

	got := d.Detect(context.Background(), nil, items)

	assert.Equal(t, 1.0, got.Signal.Score)
	assert.Equal(t, 1, MathErrorCount(got))
	assert.Len(t, got.Flags, 1)
	assert.Equal(t, "math_error", got.Flags[0].Type)
	assert.Equal(t, domain.SeverityMedium, got.Flags[0].Severity)
	assert.Equal(t, "line item 2", got.Flags[0].Location)
}

func TestMathDetector_LargeDiscrepancyIsHighSeverity(t *testing.T) {
	d := &MathDetector{}
	items := []domain.LineItem{
		{ItemName: "Room Charge", ItemRate: 1000, ItemQuantity: 3, ItemAmount: 3500},
	}

	got := d.Detect(context.Background(), nil, items)

	assert.Equal(t, 1.0, got.Signal.Score)
	assert.Equal(t, domain.SeverityHigh, got.Flags[0].Severity)
}

func TestMathDetector_CountsEveryDiscrepancy(t *testing.T) {
	d := &MathDetector{}
	items := []domain.LineItem{
		{ItemName: "A", ItemRate: 10, ItemQuantity: 1, ItemAmount: 15},
		{ItemName: "B", ItemRate: 20, ItemQuantity: 2, ItemAmount: 50},
		{ItemName: "C", ItemRate: 30, ItemQuantity: 1, ItemAmount: 30},
	}

	got := d.Detect(context.Background(), nil, items)

	assert.Equal(t, 2, MathErrorCount(got))
}

func TestMathDetector_FlagsDuplicateItems(t *testing.T) {
	d := &MathDetector{}
	items := []domain.LineItem{
		{ItemName: "Blood Test", ItemRate: 100, ItemQuantity: 1, ItemAmount: 100},
		{ItemName: "blood test ", ItemRate: 100, ItemQuantity: 1, ItemAmount: 100},
	}

	got := d.Detect(context.Background(), nil, items)

	// Duplicates are advisory: flagged but never scored.
	assert.Equal(t, 0.0, got.Signal.Score)
	assert.Len(t, got.Flags, 1)
	assert.Equal(t, "duplicate_items", got.Flags[0].Type)
	assert.Equal(t, "line item 2", got.Flags[0].Location)
}

func TestMathDetector_NoItems(t *testing.T) {
	d := &MathDetector{}

	got := d.Detect(context.Background(), nil, nil)

	assert.Equal(t, 0.0, got.Signal.Score)
	assert.Empty(t, got.Flags)
}
