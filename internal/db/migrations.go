package db

import (
	"fmt"

	"gorm.io/gorm"

	"field-service/internal/config"
	"field-service/internal/model"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS fields (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		area DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (area >= 0),
		current_crop VARCHAR(255) NOT NULL,
		polygon TEXT,
		geometry_wkt TEXT,
		centroid_lat DOUBLE PRECISION,
		centroid_lon DOUBLE PRECISION,
		image_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS field_operations (
		id BIGSERIAL PRIMARY KEY,
		field_id BIGINT NOT NULL REFERENCES fields (id),
		type VARCHAR(255) NOT NULL,
		date DATE NOT NULL,
		notes TEXT,
		cost DOUBLE PRECISION CHECK (cost IS NULL OR cost >= 0),
		linked_purchase TEXT,
		linked_service TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_field_operations_field_date ON field_operations (field_id, date DESC);`,
	`CREATE TABLE IF NOT EXISTS crop_history (
		id BIGSERIAL PRIMARY KEY,
		field_id BIGINT NOT NULL REFERENCES fields (id),
		year INTEGER NOT NULL,
		crop VARCHAR(255) NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_crop_history_field_year ON crop_history (field_id, year);`,
	`CREATE OR REPLACE FUNCTION set_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_fields_updated_at') THEN
			CREATE TRIGGER trg_fields_updated_at
				BEFORE UPDATE ON fields
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
}

// Migrate brings the schema up to date. Postgres gets the hand-written DDL;
// sqlite, used for local runs and tests, is migrated from the models.
func Migrate(database *gorm.DB, driver string) error {
	if driver == config.DriverSQLite {
		return database.AutoMigrate(&model.Field{}, &model.FieldOperation{}, &model.CropHistory{})
	}
	return runMigrations(database)
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
