package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"billsight/internal/domain"
)

// MockFraudService is a mock implementation of service.FraudService.
type MockFraudService struct {
	mock.Mock
}

func (m *MockFraudService) DetectFromURL(ctx context.Context, url string) (*domain.FraudAssessment, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FraudAssessment), args.Error(1)
}
