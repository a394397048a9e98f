package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"billsight/internal/domain"
)

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{
		"is_success": false,
		"error":      &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedScheme):
		return http.StatusBadRequest, "UNSUPPORTED_SCHEME", "document URL must use http or https"
	case errors.Is(err, domain.ErrDownloadFailed):
		return http.StatusUnprocessableEntity, "DOWNLOAD_FAILED", "document could not be downloaded"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "document exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_FILE_TYPE", "unsupported document type; allowed: pdf, jpg, png"
	case errors.Is(err, domain.ErrConversionFailed):
		return http.StatusUnprocessableEntity, "CONVERSION_FAILED", "document could not be converted to page images"
	case errors.Is(err, domain.ErrTooManyPages):
		return http.StatusUnprocessableEntity, "TOO_MANY_PAGES", "document exceeds maximum page count"
	case errors.Is(err, domain.ErrAllPagesFailed):
		return http.StatusUnprocessableEntity, "ALL_PAGES_FAILED", "no page of the document could be processed"
	case errors.Is(err, domain.ErrPreprocessFailed):
		return http.StatusUnprocessableEntity, "PREPROCESS_FAILED", "document page could not be prepared for analysis"
	case errors.Is(err, domain.ErrModelInvocation):
		return http.StatusBadGateway, "MODEL_INVOCATION_FAILED", "vision model request failed"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
