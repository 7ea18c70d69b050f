package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"gorm.io/datatypes"

	"field-service/internal/model"
	"field-service/internal/utils"
)

type OperationRepository interface {
	ListByField(ctx context.Context, fieldID uint) ([]model.FieldOperation, error)
	Create(ctx context.Context, op *model.FieldOperation) error
}

// OperationService keeps the per-field operation ledger. Operations are
// append-only and always read fresh.
type OperationService struct {
	repo   OperationRepository
	fields *FieldService
}

func NewOperationService(repo OperationRepository, fields *FieldService) *OperationService {
	return &OperationService{repo: repo, fields: fields}
}

type CreateOperationInput struct {
	FieldID        uint
	Type           string
	Date           string
	Notes          string
	Cost           *float64
	LinkedPurchase *model.LinkedPurchase
	LinkedService  *model.LinkedService
}

// List returns the field's operations, newest first.
func (s *OperationService) List(ctx context.Context, fieldID uint) ([]model.FieldOperation, error) {
	if _, err := s.fields.Get(ctx, fieldID); err != nil {
		return nil, err
	}

	ops, err := s.repo.ListByField(ctx, fieldID)
	if err != nil {
		return nil, storeError(err)
	}
	if ops == nil {
		ops = []model.FieldOperation{}
	}
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Day().After(ops[j].Day())
	})
	return ops, nil
}

func (s *OperationService) Create(ctx context.Context, input CreateOperationInput) (*model.FieldOperation, error) {
	opType := strings.TrimSpace(input.Type)
	if opType == "" {
		return nil, invalid("type is required")
	}
	if strings.TrimSpace(input.Date) == "" {
		return nil, invalid("date is required")
	}
	date, err := utils.ParseDate(input.Date)
	if err != nil {
		return nil, invalid("date: %v", err)
	}
	if input.Cost != nil {
		c := *input.Cost
		if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
			return nil, invalid("cost must be a non-negative number")
		}
	}

	if _, err := s.fields.Get(ctx, input.FieldID); err != nil {
		return nil, err
	}

	op := &model.FieldOperation{
		FieldID:        input.FieldID,
		Type:           opType,
		Date:           datatypes.Date(date),
		Notes:          strings.TrimSpace(input.Notes),
		Cost:           input.Cost,
		LinkedPurchase: input.LinkedPurchase,
		LinkedService:  input.LinkedService,
	}
	if err := s.repo.Create(ctx, op); err != nil {
		return nil, storeError(err)
	}
	return op, nil
}
