package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"billsight/internal/port"
)

// MockDocumentFetcher is a mock implementation of port.DocumentFetcher.
type MockDocumentFetcher struct {
	mock.Mock
}

func (m *MockDocumentFetcher) Fetch(ctx context.Context, url string) (*port.FetchedDocument, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.FetchedDocument), args.Error(1)
}
