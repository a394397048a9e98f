package service

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"billsight/internal/domain"
	"billsight/internal/port"
)

// ExtractionService turns a document URL into structured line items
// with document-level reconciliation totals.
type ExtractionService interface {
	ExtractFromURL(ctx context.Context, url string) (*domain.ExtractionResult, error)
}

type extractionService struct {
	fetcher port.DocumentFetcher
	raster  port.Rasterizer
	vision  port.VisionModel
}

// NewExtractionService creates an extraction service backed by the
// given fetcher, rasterizer and vision model.
func NewExtractionService(fetcher port.DocumentFetcher, raster port.Rasterizer, vision port.VisionModel) ExtractionService {
	return &extractionService{fetcher: fetcher, raster: raster, vision: vision}
}

// ExtractFromURL fetches and rasterizes the document, then extracts
// each page in order. A page failure is recorded and skipped; the
// document as a whole fails only when every page fails.
func (s *extractionService) ExtractFromURL(ctx context.Context, url string) (*domain.ExtractionResult, error) {
	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	pages, err := s.raster.Rasterize(ctx, doc)
	if err != nil {
		return nil, err
	}

	var (
		pageResults []domain.PageItems
		failures    []domain.PageFailure
		usage       domain.TokenUsage
	)
	for i, page := range pages {
		pageNo := i + 1
		if ctx.Err() != nil {
			// Stop issuing model calls but keep completed pages.
			for j := i; j < len(pages); j++ {
				failures = append(failures, domain.PageFailure{PageNo: j + 1, Reason: "cancelled"})
			}
			break
		}

		_, encoded, perr := preprocessPage(page)
		if perr == nil {
			var items []domain.LineItem
			var pageUsage domain.TokenUsage
			items, pageUsage, perr = analyzeExtract(ctx, s.vision, encoded)
			if perr == nil {
				usage.Add(pageUsage)
				pageResults = append(pageResults, domain.PageItems{
					PageNo:    strconv.Itoa(pageNo),
					PageType:  "Bill Detail",
					BillItems: items,
				})
				continue
			}
		}
		log.Printf("service.ExtractionService: page %d failed: %v", pageNo, perr)
		failures = append(failures, domain.PageFailure{PageNo: pageNo, Reason: failureReason(perr)})
	}

	if len(pageResults) == 0 {
		return nil, fmt.Errorf("%w: all %d pages failed", domain.ErrAllPagesFailed, len(pages))
	}

	count, amount := Reconcile(pageResults)
	return &domain.ExtractionResult{
		PagewiseLineItems: pageResults,
		TotalItemCount:    count,
		ReconciledAmount:  amount,
		TokenUsage:        usage,
		PageFailures:      failures,
	}, nil
}
