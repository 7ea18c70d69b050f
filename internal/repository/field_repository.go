package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"field-service/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrRejected means the store refused the record as invalid.
	ErrRejected = errors.New("record rejected")
	// ErrConflict means the record changed or already exists in the store.
	ErrConflict = errors.New("record conflict")
)

type FieldRepository struct {
	db *gorm.DB
}

func NewFieldRepository(db *gorm.DB) *FieldRepository {
	return &FieldRepository{db: db}
}

func (r *FieldRepository) List(ctx context.Context) ([]model.Field, error) {
	var fields []model.Field
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&fields).Error; err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *FieldRepository) GetByID(ctx context.Context, id uint) (*model.Field, error) {
	var field model.Field
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&field).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &field, nil
}

func (r *FieldRepository) Create(ctx context.Context, field *model.Field) error {
	return r.db.WithContext(ctx).Create(field).Error
}

// Update overwrites every column of an existing field.
func (r *FieldRepository) Update(ctx context.Context, field *model.Field) error {
	result := r.db.WithContext(ctx).
		Model(&model.Field{}).
		Where("id = ?", field.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(field)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
