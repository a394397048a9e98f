package domain

import "errors"

var (
	// Document-level errors. These surface to the caller as a failed
	// request with no partial data.
	ErrUnsupportedScheme   = errors.New("document URL must use http or https")
	ErrDownloadFailed      = errors.New("document download failed")
	ErrFileTooLarge        = errors.New("document exceeds maximum allowed size")
	ErrUnsupportedFileType = errors.New("unsupported document type")
	ErrConversionFailed    = errors.New("document could not be rasterized")
	ErrTooManyPages        = errors.New("document exceeds maximum page count")
	ErrAllPagesFailed      = errors.New("extraction failed for every page")

	// Per-page errors. The orchestrator records these as a failed page
	// and continues with the remaining pages.
	ErrPreprocessFailed = errors.New("page image could not be preprocessed")
	ErrModelInvocation  = errors.New("vision model invocation failed")
	ErrSchemaValidation = errors.New("model response failed schema validation")
)
