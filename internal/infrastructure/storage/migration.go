package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate applies the schema. Statements are idempotent so every start
// can run them; there is no versioned migration registry.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS wines (
			id BIGSERIAL PRIMARY KEY,
			product_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			producer TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			region TEXT NOT NULL DEFAULT '',
			vintage INT,
			alcohol_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
			price DOUBLE PRECISION NOT NULL,
			currency TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			assortment TEXT NOT NULL DEFAULT '',
			sales_start DATE,
			source TEXT NOT NULL DEFAULT '',
			investment_score INT NOT NULL DEFAULT 0,
			projected_return_1y DOUBLE PRECISION NOT NULL DEFAULT 0,
			projected_return_3y DOUBLE PRECISION NOT NULL DEFAULT 0,
			projected_return_5y DOUBLE PRECISION NOT NULL DEFAULT 0,
			projected_return_10y DOUBLE PRECISION NOT NULL DEFAULT 0,
			storage_time_months INT NOT NULL DEFAULT 0,
			drinking_window_start INT NOT NULL DEFAULT 0,
			drinking_window_end INT NOT NULL DEFAULT 0,
			value_appreciation DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS sync_status (
			id UUID PRIMARY KEY,
			sync_type TEXT NOT NULL,
			status TEXT NOT NULL,
			total_products INT NOT NULL DEFAULT 0,
			processed_products INT NOT NULL DEFAULT 0,
			wines_inserted INT NOT NULL DEFAULT 0,
			wines_updated INT NOT NULL DEFAULT 0,
			error_message TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS sync_status_started_at_idx ON sync_status (started_at DESC)`,
		`CREATE TABLE IF NOT EXISTS launch_plans (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			plan_date DATE NOT NULL,
			plan_year INT NOT NULL,
			plan_quarter INT NOT NULL,
			source_url TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS user_favorites (
			id UUID PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			product_ids TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS user_favorites_owner_idx ON user_favorites (owner_id)`,
		`DO $$ BEGIN
			CREATE TYPE app_role AS ENUM ('admin', 'moderator', 'user');
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$`,
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS user_roles (
			user_id TEXT NOT NULL REFERENCES profiles (user_id),
			role app_role NOT NULL DEFAULT 'user',
			PRIMARY KEY (user_id, role)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return nil
}
