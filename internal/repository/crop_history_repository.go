package repository

import (
	"context"

	"gorm.io/gorm"

	"field-service/internal/model"
)

type CropHistoryRepository struct {
	db *gorm.DB
}

func NewCropHistoryRepository(db *gorm.DB) *CropHistoryRepository {
	return &CropHistoryRepository{db: db}
}

func (r *CropHistoryRepository) ListByField(ctx context.Context, fieldID uint) ([]model.CropHistory, error) {
	var history []model.CropHistory
	err := r.db.WithContext(ctx).
		Where("field_id = ?", fieldID).
		Order("year DESC").
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (r *CropHistoryRepository) Create(ctx context.Context, record *model.CropHistory) error {
	return r.db.WithContext(ctx).Create(record).Error
}
