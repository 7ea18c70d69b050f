package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"field-service/internal/model"
)

type mockFieldRepository struct {
	mock.Mock
}

func (m *mockFieldRepository) List(ctx context.Context) ([]model.Field, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Field), args.Error(1)
}

func (m *mockFieldRepository) GetByID(ctx context.Context, id uint) (*model.Field, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Field), args.Error(1)
}

func (m *mockFieldRepository) Create(ctx context.Context, field *model.Field) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

func (m *mockFieldRepository) Update(ctx context.Context, field *model.Field) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

type mockOperationRepository struct {
	mock.Mock
}

func (m *mockOperationRepository) ListByField(ctx context.Context, fieldID uint) ([]model.FieldOperation, error) {
	args := m.Called(ctx, fieldID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FieldOperation), args.Error(1)
}

func (m *mockOperationRepository) Create(ctx context.Context, op *model.FieldOperation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

type mockCropHistoryRepository struct {
	mock.Mock
}

func (m *mockCropHistoryRepository) ListByField(ctx context.Context, fieldID uint) ([]model.CropHistory, error) {
	args := m.Called(ctx, fieldID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CropHistory), args.Error(1)
}
