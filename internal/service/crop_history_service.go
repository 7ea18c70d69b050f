package service

import (
	"context"
	"sort"

	"field-service/internal/model"
)

type CropHistoryRepository interface {
	ListByField(ctx context.Context, fieldID uint) ([]model.CropHistory, error)
}

type CropHistoryService struct {
	repo CropHistoryRepository
}

func NewCropHistoryService(repo CropHistoryRepository) *CropHistoryService {
	return &CropHistoryService{repo: repo}
}

// List returns the crop rotation of a field, latest year first.
func (s *CropHistoryService) List(ctx context.Context, fieldID uint) ([]model.CropHistory, error) {
	history, err := s.repo.ListByField(ctx, fieldID)
	if err != nil {
		return nil, storeError(err)
	}
	if history == nil {
		history = []model.CropHistory{}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Year > history[j].Year
	})
	return history, nil
}
