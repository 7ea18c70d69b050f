package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"field-service/internal/analytics"
	"field-service/internal/capture"
	"field-service/internal/geo"
	"field-service/internal/model"
)

const (
	fieldListKey    = "fields"
	fieldKeyPrefix  = "field:"
	fieldSummaryKey = "fields:summary"
)

type FieldRepository interface {
	List(ctx context.Context) ([]model.Field, error)
	GetByID(ctx context.Context, id uint) (*model.Field, error)
	Create(ctx context.Context, field *model.Field) error
	Update(ctx context.Context, field *model.Field) error
}

type FieldService struct {
	repo             FieldRepository
	cache            *Cache
	imagePlaceholder string
	log              zerolog.Logger
}

func NewFieldService(repo FieldRepository, cache *Cache, imagePlaceholder string, log zerolog.Logger) *FieldService {
	return &FieldService{
		repo:             repo,
		cache:            cache,
		imagePlaceholder: imagePlaceholder,
		log:              log,
	}
}

type CreateFieldInput struct {
	Name        string
	CurrentCrop string
	Boundary    geo.Ring
	ImageURL    string
}

// UpdateFieldInput is a partial update; nil members are left as they are.
type UpdateFieldInput struct {
	Name        *string
	CurrentCrop *string
	Boundary    *geo.Ring
}

func fieldKey(id uint) string {
	return fmt.Sprintf("%s%d", fieldKeyPrefix, id)
}

func (s *FieldService) List(ctx context.Context) ([]model.Field, error) {
	if cached, ok := s.cache.Get(fieldListKey); ok {
		return cloneFields(cached.([]model.Field)), nil
	}

	fields, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	if fields == nil {
		fields = []model.Field{}
	}

	s.cache.Set(fieldListKey, cloneFields(fields))
	return fields, nil
}

func (s *FieldService) Get(ctx context.Context, id uint) (*model.Field, error) {
	if cached, ok := s.cache.Get(fieldKey(id)); ok {
		field := cached.(model.Field)
		return cloneField(&field), nil
	}

	field, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	s.cache.Set(fieldKey(id), *cloneField(field))
	return field, nil
}

// Create validates the draft, derives the area from the boundary and stores
// the field. Area supplied by callers is never trusted.
func (s *FieldService) Create(ctx context.Context, input CreateFieldInput) (*model.Field, error) {
	name := strings.TrimSpace(input.Name)
	crop := strings.TrimSpace(input.CurrentCrop)
	if err := requireText(name, crop); err != nil {
		return nil, err
	}
	if err := checkBoundary(input.Boundary); err != nil {
		return nil, err
	}

	field := &model.Field{
		Name:        name,
		CurrentCrop: crop,
		ImageURL:    strings.TrimSpace(input.ImageURL),
	}
	if field.ImageURL == "" {
		field.ImageURL = s.imagePlaceholder
	}
	field.ApplyBoundary(input.Boundary)

	if err := s.repo.Create(ctx, field); err != nil {
		return nil, storeError(err)
	}

	s.cache.Delete(fieldListKey, fieldSummaryKey)
	s.log.Info().Uint("field_id", field.ID).Float64("area", field.Area).Msg("field created")
	return field, nil
}

func (s *FieldService) Update(ctx context.Context, id uint, input UpdateFieldInput) (*model.Field, error) {
	field, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	if input.Name != nil {
		field.Name = strings.TrimSpace(*input.Name)
	}
	if input.CurrentCrop != nil {
		field.CurrentCrop = strings.TrimSpace(*input.CurrentCrop)
	}
	if err := requireText(field.Name, field.CurrentCrop); err != nil {
		return nil, err
	}
	if input.Boundary != nil {
		if err := checkBoundary(*input.Boundary); err != nil {
			return nil, err
		}
		field.ApplyBoundary(*input.Boundary)
	}

	if err := s.repo.Update(ctx, field); err != nil {
		return nil, storeError(err)
	}

	s.cache.Delete(fieldListKey, fieldSummaryKey, fieldKey(id))
	s.log.Info().Uint("field_id", field.ID).Float64("area", field.Area).Msg("field updated")
	return field, nil
}

func (s *FieldService) Summary(ctx context.Context) (analytics.PortfolioSummary, error) {
	if cached, ok := s.cache.Get(fieldSummaryKey); ok {
		return cached.(analytics.PortfolioSummary), nil
	}

	fields, err := s.List(ctx)
	if err != nil {
		return analytics.PortfolioSummary{}, err
	}

	summary := analytics.Portfolio(fields)
	s.cache.Set(fieldSummaryKey, summary)
	return summary, nil
}

func requireText(name, crop string) error {
	if name == "" {
		return fmt.Errorf("%w: name: %w", ErrInvalidInput, capture.ErrMissingField)
	}
	if crop == "" {
		return fmt.Errorf("%w: currentCrop: %w", ErrInvalidInput, capture.ErrMissingField)
	}
	return nil
}

// checkBoundary allows a field without geometry but never a partial one.
func checkBoundary(ring geo.Ring) error {
	if len(ring) > 0 && !geo.IsComplete(ring) {
		return fmt.Errorf("%w: polygon: %w", ErrInvalidInput, capture.ErrIncompleteBoundary)
	}
	if !geo.Finite(ring) {
		return fmt.Errorf("%w: polygon: %w", ErrInvalidInput, capture.ErrInvalidCoordinates)
	}
	return nil
}

func cloneField(f *model.Field) *model.Field {
	out := *f
	out.Polygon = f.Polygon.Clone()
	return &out
}

func cloneFields(fields []model.Field) []model.Field {
	out := make([]model.Field, len(fields))
	for i := range fields {
		out[i] = *cloneField(&fields[i])
	}
	return out
}
