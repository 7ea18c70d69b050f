package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"field-service/internal/capture"
	"field-service/internal/model"
)

// CaptureService opens boundary capture sessions and persists what they
// submit through the FieldService.
type CaptureService struct {
	registry *capture.Registry
	fields   *FieldService
	log      zerolog.Logger
}

func NewCaptureService(registry *capture.Registry, fields *FieldService, log zerolog.Logger) *CaptureService {
	return &CaptureService{registry: registry, fields: fields, log: log}
}

// Open starts a session. With a field id the session edits that field and
// starts from its stored boundary; otherwise it creates a new field.
func (s *CaptureService) Open(ctx context.Context, fieldID *uint) (*capture.Session, error) {
	opts := capture.OpenOptions{Submitter: s.creator()}

	if fieldID != nil {
		field, err := s.fields.Get(ctx, *fieldID)
		if err != nil {
			return nil, err
		}
		id := field.ID
		opts.FieldID = &id
		opts.Boundary = field.Polygon
		opts.Submitter = s.updater(id)
	}

	session := s.registry.Open(opts)
	s.log.Info().Str("session_id", session.ID.String()).Msg("capture session started")
	return session, nil
}

func (s *CaptureService) Get(id uuid.UUID) (*capture.Session, error) {
	session, err := s.registry.Get(id)
	if errors.Is(err, capture.ErrSessionNotFound) {
		return nil, ErrNotFound
	}
	return session, err
}

// Close abandons the session, releasing any live location subscription.
func (s *CaptureService) Close(id uuid.UUID) error {
	err := s.registry.Remove(id)
	if errors.Is(err, capture.ErrSessionNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *CaptureService) creator() capture.Submitter {
	return capture.SubmitterFunc(func(ctx context.Context, draft capture.Draft) (*model.Field, error) {
		return s.fields.Create(ctx, CreateFieldInput{
			Name:        draft.Name,
			CurrentCrop: draft.CurrentCrop,
			Boundary:    draft.Boundary,
		})
	})
}

func (s *CaptureService) updater(id uint) capture.Submitter {
	return capture.SubmitterFunc(func(ctx context.Context, draft capture.Draft) (*model.Field, error) {
		boundary := draft.Boundary
		return s.fields.Update(ctx, id, UpdateFieldInput{
			Name:        &draft.Name,
			CurrentCrop: &draft.CurrentCrop,
			Boundary:    &boundary,
		})
	})
}
