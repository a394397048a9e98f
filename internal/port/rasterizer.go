package port

import (
	"context"
	"image"
)

// Rasterizer turns a fetched document into ordered page images.
// Page order in the returned slice is the document's page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc *FetchedDocument) ([]image.Image, error)
}
