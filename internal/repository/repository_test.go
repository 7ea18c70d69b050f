package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"field-service/internal/config"
	"field-service/internal/db"
	"field-service/internal/geo"
	"field-service/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{DB: config.DBConfig{Driver: config.DriverSQLite, DSN: "file::memory:", MaxOpenConns: 1}}
	database, err := db.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database, config.DriverSQLite))
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return database
}

func day(y int, m time.Month, d int) datatypes.Date {
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

var testRing = geo.Ring{{Lon: 38.97, Lat: 45.03}, {Lon: 38.98, Lat: 45.03}, {Lon: 38.98, Lat: 45.04}}

func TestFieldRepository_CreateGetList(t *testing.T) {
	repo := NewFieldRepository(newTestDB(t))
	ctx := context.Background()

	field := &model.Field{Name: "У реки", CurrentCrop: "Пшеница", ImageURL: "https://example.org/tile.png"}
	field.ApplyBoundary(testRing)
	require.NoError(t, repo.Create(ctx, field))
	require.NotZero(t, field.ID)

	got, err := repo.GetByID(ctx, field.ID)
	require.NoError(t, err)
	assert.Equal(t, "У реки", got.Name)
	assert.Equal(t, testRing, got.Polygon)
	assert.Equal(t, geo.AreaHectares(testRing), got.Area)
	assert.Equal(t, geo.WKT(testRing), got.GeometryWKT)
	require.NotNil(t, got.CentroidLat)

	second := &model.Field{Name: "Без контура", CurrentCrop: "Пар"}
	require.NoError(t, repo.Create(ctx, second))

	fields, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, field.ID, fields[0].ID)
	assert.Empty(t, fields[1].Polygon)
}

func TestFieldRepository_GetMissing(t *testing.T) {
	repo := NewFieldRepository(newTestDB(t))
	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFieldRepository_Update(t *testing.T) {
	repo := NewFieldRepository(newTestDB(t))
	ctx := context.Background()

	field := &model.Field{Name: "Старое", CurrentCrop: "Пшеница"}
	field.ApplyBoundary(testRing)
	require.NoError(t, repo.Create(ctx, field))

	field.Name = "Новое"
	field.ApplyBoundary(nil)
	require.NoError(t, repo.Update(ctx, field))

	got, err := repo.GetByID(ctx, field.ID)
	require.NoError(t, err)
	assert.Equal(t, "Новое", got.Name)
	assert.Zero(t, got.Area)
	assert.Empty(t, got.Polygon)
	assert.Nil(t, got.CentroidLat)

	missing := &model.Field{ID: 999, Name: "x", CurrentCrop: "y"}
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrNotFound)
}

func TestOperationRepository(t *testing.T) {
	database := newTestDB(t)
	fields := NewFieldRepository(database)
	repo := NewOperationRepository(database)
	ctx := context.Background()

	field := &model.Field{Name: "Поле", CurrentCrop: "Ячмень"}
	require.NoError(t, fields.Create(ctx, field))

	cost := 1500.0
	ops := []*model.FieldOperation{
		{FieldID: field.ID, Type: "Вспашка", Date: day(2024, 4, 1)},
		{FieldID: field.ID, Type: "Посев", Date: day(2024, 4, 20), Cost: &cost,
			LinkedPurchase: &model.LinkedPurchase{ProductID: "12", ProductName: "Семена ячменя", Quantity: 2}},
		{FieldID: field.ID, Type: "Уборка", Date: day(2024, 8, 10),
			LinkedService: &model.LinkedService{ServiceID: "3", ServiceName: "Комбайн"}},
	}
	for _, op := range ops {
		require.NoError(t, repo.Create(ctx, op))
	}
	require.NoError(t, repo.Create(ctx, &model.FieldOperation{FieldID: field.ID + 1, Type: "Чужая", Date: day(2024, 5, 1)}))

	got, err := repo.ListByField(ctx, field.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Уборка", "Посев", "Вспашка"}, []string{got[0].Type, got[1].Type, got[2].Type})

	assert.Equal(t, "2024-04-20", got[1].Day().Format(model.DateLayout))
	require.NotNil(t, got[1].Cost)
	assert.Equal(t, 1500.0, *got[1].Cost)
	assert.Equal(t, "Семена ячменя", got[1].LinkedPurchase.ProductName)
	assert.Equal(t, "Комбайн", got[0].LinkedService.ServiceName)
	assert.Nil(t, got[2].Cost)
}

func TestCropHistoryRepository(t *testing.T) {
	database := newTestDB(t)
	repo := NewCropHistoryRepository(database)
	ctx := context.Background()

	for year, crop := range map[int]string{2021: "Пшеница", 2023: "Подсолнечник", 2022: "Ячмень"} {
		require.NoError(t, repo.Create(ctx, &model.CropHistory{FieldID: 1, Year: year, Crop: crop}))
	}

	history, err := repo.ListByField(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 2023, history[0].Year)
	assert.Equal(t, 2021, history[2].Year)

	empty, err := repo.ListByField(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
