package port

import (
	"context"

	"billsight/internal/domain"
)

// FetchedDocument is the raw downloaded document plus its sniffed kind.
type FetchedDocument struct {
	Bytes []byte
	Kind  domain.MediaKind
}

// DocumentFetcher downloads a remote bill document.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}
