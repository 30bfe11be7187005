package main

import (
	"context"
	"database/sql"
	"fmt"
)

// ensureSchema creates the tables this service owns when they are missing.
// Safe to run on every startup.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS locations (
			id                BIGSERIAL PRIMARY KEY,
			name              TEXT NOT NULL,
			address           TEXT NOT NULL,
			description       TEXT NOT NULL DEFAULT '',
			lat               DOUBLE PRECISION NOT NULL,
			lng               DOUBLE PRECISION NOT NULL,
			cuisines          JSONB NOT NULL DEFAULT '[]',
			service_type      TEXT NOT NULL DEFAULT 'both',
			price_range       TEXT NOT NULL DEFAULT '',
			rating            DOUBLE PRECISION,
			review_count      INTEGER,
			images            JSONB NOT NULL DEFAULT '[]',
			hours             JSONB NOT NULL DEFAULT '{}',
			is_open_now       BOOLEAN NOT NULL DEFAULT FALSE,
			phone             TEXT,
			website           TEXT,
			enriched_at       TIMESTAMPTZ,
			enrichment_source TEXT,
			status            TEXT NOT NULL DEFAULT 'pending',
			discovery_source  TEXT NOT NULL DEFAULT 'user-submitted',
			moderation_notes  TEXT,
			rejection_reason  TEXT,
			moderated_at      TIMESTAMPTZ,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS locations_status_idx ON locations (status)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id          BIGSERIAL PRIMARY KEY,
			location_id BIGINT NOT NULL REFERENCES locations (id) ON DELETE CASCADE,
			author      TEXT NOT NULL,
			rating      INTEGER NOT NULL,
			comment     TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'pending',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS reviews_location_idx ON reviews (location_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
