package service

import (
	"context"

	"field-service/internal/analytics"
	"field-service/internal/model"
)

// Planning inputs used when the client does not send its own.
const (
	DefaultPlannedYield = "50"
	DefaultPlannedPrice = "13000"
)

// FieldLedger is a field with its operations and their cost breakdown.
type FieldLedger struct {
	Field      *model.Field           `json:"field"`
	Operations []model.FieldOperation `json:"operations"`
	Costs      analytics.CostSummary  `json:"costs"`
}

type FieldAnalytics struct {
	FieldLedger
	PlannedYield string               `json:"plannedYield"`
	PlannedPrice string               `json:"plannedPrice"`
	Projection   analytics.Projection `json:"projection"`
}

type AnalyticsService struct {
	fields     *FieldService
	operations *OperationService
}

func NewAnalyticsService(fields *FieldService, operations *OperationService) *AnalyticsService {
	return &AnalyticsService{fields: fields, operations: operations}
}

func (s *AnalyticsService) Ledger(ctx context.Context, fieldID uint) (*FieldLedger, error) {
	field, err := s.fields.Get(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	ops, err := s.operations.List(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	return &FieldLedger{
		Field:      field,
		Operations: ops,
		Costs:      analytics.AggregateCosts(ops, field.Area),
	}, nil
}

// ForField recomputes the cost structure and a profit projection. Planning
// inputs that are not numbers make the projection not computable rather
// than failing the request.
func (s *AnalyticsService) ForField(ctx context.Context, fieldID uint, plannedYield, plannedPrice string) (*FieldAnalytics, error) {
	ledger, err := s.Ledger(ctx, fieldID)
	if err != nil {
		return nil, err
	}

	if plannedYield == "" {
		plannedYield = DefaultPlannedYield
	}
	if plannedPrice == "" {
		plannedPrice = DefaultPlannedPrice
	}

	result := &FieldAnalytics{
		FieldLedger:  *ledger,
		PlannedYield: plannedYield,
		PlannedPrice: plannedPrice,
	}
	yield, okYield := analytics.ParseFloat(plannedYield)
	price, okPrice := analytics.ParseFloat(plannedPrice)
	if okYield && okPrice {
		result.Projection = analytics.ProjectProfitability(ledger.Costs.CostPerHectare, ledger.Field.Area, yield, price)
	}
	return result, nil
}
