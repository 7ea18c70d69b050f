package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"field-service/internal/capture"
	"field-service/internal/geo"
	"field-service/internal/model"
)

func newCaptureService(t *testing.T) (*CaptureService, *mockFieldRepository) {
	t.Helper()
	repo := &mockFieldRepository{}
	registry := capture.NewRegistry(time.Hour, zerolog.Nop())
	t.Cleanup(registry.Close)
	return NewCaptureService(registry, newFieldService(repo), zerolog.Nop()), repo
}

func TestCaptureService_SubmitTwoPointsMakesNoCall(t *testing.T) {
	svc, repo := newCaptureService(t)
	session, err := svc.Open(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, session.Controller.ShapeCreated(triangle[:2]))
	_, err = session.Controller.Submit(context.Background(), "У реки", "Пшеница")

	var verr *capture.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, capture.ErrIncompleteBoundary)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCaptureService_SubmitThreePointsCreatesOnce(t *testing.T) {
	svc, repo := newCaptureService(t)
	session, err := svc.Open(context.Background(), nil)
	require.NoError(t, err)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(f *model.Field) bool {
		return f.Area == geo.AreaHectares(triangle)
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Field).ID = 21
	}).Return(nil).Once()

	require.NoError(t, session.Controller.ShapeCreated(triangle))
	field, err := session.Controller.Submit(context.Background(), "У реки", "Пшеница")
	require.NoError(t, err)

	repo.AssertNumberOfCalls(t, "Create", 1)
	assert.Equal(t, uint(21), field.ID)
	assert.Equal(t, capture.StateSubmitted, session.Controller.State())
}

func TestCaptureService_EditSessionSeedsAndUpdates(t *testing.T) {
	svc, repo := newCaptureService(t)
	stored := &model.Field{ID: 8, Name: "Северное", CurrentCrop: "Рапс"}
	stored.ApplyBoundary(triangle)
	repo.On("GetByID", mock.Anything, uint(8)).Return(stored, nil)

	fieldID := uint(8)
	session, err := svc.Open(context.Background(), &fieldID)
	require.NoError(t, err)

	snap := session.Controller.Snapshot()
	assert.Equal(t, capture.StateDrafted, snap.State)
	assert.Equal(t, triangle, snap.Boundary)
	require.NotNil(t, session.FieldID)
	assert.Equal(t, uint(8), *session.FieldID)

	square := geo.Ring{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 0.001}, {Lon: 0.001, Lat: 0.001}, {Lon: 0.001, Lat: 0}}
	repo.On("Update", mock.Anything, mock.MatchedBy(func(f *model.Field) bool {
		return f.ID == 8 && f.Name == "Северное" && f.Area == geo.AreaHectares(square)
	})).Return(nil).Once()

	require.NoError(t, session.Controller.ShapeEdited(square))
	field, err := session.Controller.Submit(context.Background(), "Северное", "Рапс")
	require.NoError(t, err)
	assert.Equal(t, geo.AreaHectares(square), field.Area)
	repo.AssertExpectations(t)
}

func TestCaptureService_GetAndClose(t *testing.T) {
	svc, _ := newCaptureService(t)

	_, err := svc.Get(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Close(uuid.New()), ErrNotFound)

	session, err := svc.Open(context.Background(), nil)
	require.NoError(t, err)
	got, err := svc.Get(session.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)

	require.NoError(t, svc.Close(session.ID))
	assert.Equal(t, capture.StateAbandoned, session.Controller.State())
}
