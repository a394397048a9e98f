package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"sort"

	_ "image/jpeg"
	_ "image/png"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"billsight/internal/config"
	"billsight/internal/domain"
	"billsight/internal/port"
)

// Converter rasterizes a fetched document into ordered page images.
// PDFs are expected to be scanned bills carrying one raster image per
// page; direct image uploads become a single page. It implements
// port.Rasterizer.
type Converter struct {
	maxPages int
}

// NewConverter creates a Converter bounded by the configured page cap.
func NewConverter(cfg *config.FetcherConfig) *Converter {
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 48
	}
	return &Converter{maxPages: maxPages}
}

func (c *Converter) Rasterize(_ context.Context, doc *port.FetchedDocument) ([]image.Image, error) {
	switch doc.Kind {
	case domain.MediaKindPDF:
		return c.rasterizePDF(doc.Bytes)
	case domain.MediaKindImage:
		img, _, err := image.Decode(bytes.NewReader(doc.Bytes))
		if err != nil {
			return nil, fmt.Errorf("%w: decoding image: %v", domain.ErrConversionFailed, err)
		}
		return []image.Image{img}, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, doc.Kind)
	}
}

func (c *Converter) rasterizePDF(data []byte) ([]image.Image, error) {
	rs := bytes.NewReader(data)

	count, err := api.PageCount(rs, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF: %v", domain.ErrConversionFailed, err)
	}
	if count > c.maxPages {
		return nil, fmt.Errorf("%w: %d pages (limit %d)", domain.ErrTooManyPages, count, c.maxPages)
	}

	if _, err := rs.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConversionFailed, err)
	}
	pageImages, err := api.ExtractImagesRaw(rs, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: extracting page images: %v", domain.ErrConversionFailed, err)
	}

	// One decoded image per page, keyed by page number. When a page
	// carries several embedded images, keep the largest — that is the
	// scan itself, the rest are logos and stamps.
	byPage := make(map[int]image.Image)
	for _, pageMap := range pageImages {
		for _, pdfImg := range pageMap {
			decoded, _, err := image.Decode(pdfImg)
			if err != nil {
				log.Printf("raster.Converter: skipping undecodable image on page %d: %v", pdfImg.PageNr, err)
				continue
			}
			if existing, ok := byPage[pdfImg.PageNr]; ok && area(existing) >= area(decoded) {
				continue
			}
			byPage[pdfImg.PageNr] = decoded
		}
	}

	if len(byPage) == 0 {
		return nil, fmt.Errorf("%w: no page images found in PDF", domain.ErrConversionFailed)
	}

	pageNrs := make([]int, 0, len(byPage))
	for nr := range byPage {
		pageNrs = append(pageNrs, nr)
	}
	sort.Ints(pageNrs)

	pages := make([]image.Image, 0, len(pageNrs))
	for _, nr := range pageNrs {
		pages = append(pages, byPage[nr])
	}
	return pages, nil
}

func area(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}
