package mocks

import (
	"context"

	"creditapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, rep *model.CreditReport) (*model.CreditReport, error) {
	args := m.Called(ctx, rep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreditReport), args.Error(1)
}

func (m *MockReportRepository) FindByID(ctx context.Context, id string) (*model.CreditReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreditReport), args.Error(1)
}

func (m *MockReportRepository) List(ctx context.Context) ([]model.ReportListItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReportListItem), args.Error(1)
}

func (m *MockReportRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
