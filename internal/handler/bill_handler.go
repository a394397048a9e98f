package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"billsight/internal/service"
)

// BillHandler handles bill extraction and fraud detection endpoints.
type BillHandler struct {
	extractionService service.ExtractionService
	fraudService      service.FraudService
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(extractionService service.ExtractionService, fraudService service.FraudService) *BillHandler {
	return &BillHandler{
		extractionService: extractionService,
		fraudService:      fraudService,
	}
}

// DocumentRequest is the request body for both bill endpoints.
type DocumentRequest struct {
	Document string `json:"document" binding:"required,url"`
}

// ExtractBillData handles POST /extract-bill-data
func (h *BillHandler) ExtractBillData(c *gin.Context) {
	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "document must be a valid URL")
		return
	}

	result, err := h.extractionService.ExtractFromURL(c.Request.Context(), req.Document)
	if err != nil {
		HandleError(c, err)
		return
	}

	data := gin.H{
		"pagewise_line_items": result.PagewiseLineItems,
		"total_item_count":    result.TotalItemCount,
		"reconciled_amount":   result.ReconciledAmount,
	}
	if len(result.PageFailures) > 0 {
		data["page_failures"] = result.PageFailures
	}
	c.JSON(http.StatusOK, gin.H{
		"is_success":  true,
		"data":        data,
		"token_usage": result.TokenUsage,
	})
}

// DetectFraud handles POST /detect-fraud
func (h *BillHandler) DetectFraud(c *gin.Context) {
	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "document must be a valid URL")
		return
	}

	assessment, err := h.fraudService.DetectFromURL(c.Request.Context(), req.Document)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"is_success":     true,
		"fraud_analysis": assessment,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
