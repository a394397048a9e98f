package vision

import (
	"strings"

	"billsight/internal/port"
)

// ExtractionPrompt instructs the model to pull every line item from
// one bill page as strict JSON.
const ExtractionPrompt = `You are an expert data extraction AI for medical bills.

Extract ALL line items from this medical bill page with exact details.

RETURN ONLY JSON IN THIS EXACT FORMAT:
{
    "bill_items": [
        {
            "item_name": "exact text from bill",
            "item_rate": 100.00,
            "item_quantity": 1.0,
            "item_amount": 100.00
        }
    ]
}

CRITICAL RULES:
1. item_name: Copy the EXACT description from the bill
2. item_rate: Unit price/rate. If missing, use item_amount
3. item_quantity: Number of units. If not shown, use 1.0
4. item_amount: TOTAL amount for this line (rate x quantity)
5. Use numerical values only (no currency symbols)
6. Extract EVERY line item - do not skip any
7. Do not include subtotals or grand totals as line items
8. Handle handwritten text carefully
9. All numbers should be floats with 2 decimal places

Return ONLY the JSON object, nothing else.`

// FraudPrompt asks the model for visual fraud observations as strict
// JSON convertible into fraud flags.
const FraudPrompt = `Analyze this medical bill for potential fraud indicators:

Look for:
1. Font inconsistencies (different fonts, sizes, or styles for amounts vs descriptions)
2. Alignment issues (misaligned text, overlapping text)
3. Suspicious alterations (whiteout marks, erasures, overwriting)
4. Unusual patterns (repeated amounts, round numbers, excessive charges)
5. Image quality issues (signs of photoshopping, digital manipulation)
6. Mathematical discrepancies (totals not matching sum of items)
7. Duplicated line items with same or similar descriptions

Return a JSON object:
{
    "fraud_flags": [
        {
            "type": "font_inconsistency|alignment_issue|alteration|suspicious_pattern|math_error|duplicate_items",
            "severity": "high|medium|low",
            "description": "Detailed description of the issue",
            "location": "Where on the bill this was found"
        }
    ],
    "overall_risk_score": 0.0-1.0,
    "recommendation": "approve|review|reject"
}

Only return the JSON object.`

// PromptFor returns the prompt for a vision task.
func PromptFor(task port.VisionTask) string {
	if task == port.TaskFraud {
		return FraudPrompt
	}
	return ExtractionPrompt
}

// StripCodeFences removes a single leading/trailing markdown code
// fence. Models sometimes wrap JSON despite instructions.
func StripCodeFences(s string) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "```json") {
		t = t[len("```json"):]
	} else if strings.HasPrefix(t, "```") {
		t = t[len("```"):]
	}
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}
