package repository

import (
	"context"

	"gorm.io/gorm"

	"field-service/internal/model"
)

type OperationRepository struct {
	db *gorm.DB
}

func NewOperationRepository(db *gorm.DB) *OperationRepository {
	return &OperationRepository{db: db}
}

// ListByField returns a field's operations, newest first.
func (r *OperationRepository) ListByField(ctx context.Context, fieldID uint) ([]model.FieldOperation, error) {
	var ops []model.FieldOperation
	err := r.db.WithContext(ctx).
		Where("field_id = ?", fieldID).
		Order("date DESC").
		Order("id DESC").
		Find(&ops).Error
	if err != nil {
		return nil, err
	}
	return ops, nil
}

func (r *OperationRepository) Create(ctx context.Context, op *model.FieldOperation) error {
	return r.db.WithContext(ctx).Create(op).Error
}
