package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"ReviewPipeline/internal/prompt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		price         BIGINT NOT NULL DEFAULT 0,
		image_url     TEXT NOT NULL DEFAULT '',
		category      TEXT NOT NULL DEFAULT '',
		product_url   TEXT NOT NULL DEFAULT '',
		affiliate_url TEXT NOT NULL DEFAULT '',
		source_kind   TEXT NOT NULL DEFAULT '',
		source_sub    TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL DEFAULT 'pending',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS drafts (
		id           UUID PRIMARY KEY,
		item_id      TEXT NOT NULL REFERENCES items (id),
		content      TEXT NOT NULL,
		tone_score   DOUBLE PRECISION NOT NULL,
		char_count   INTEGER NOT NULL,
		status       TEXT NOT NULL DEFAULT 'draft',
		slug         TEXT NOT NULL DEFAULT '',
		seo          JSONB,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		published_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_drafts_status ON drafts (status)`,
	`CREATE INDEX IF NOT EXISTS idx_drafts_slug ON drafts (slug) WHERE slug <> ''`,
	`CREATE TABLE IF NOT EXISTS retry_queue (
		item_id       TEXT PRIMARY KEY,
		attempt       INTEGER NOT NULL,
		next_run_at   TIMESTAMPTZ NOT NULL,
		last_error    TEXT NOT NULL DEFAULT '',
		in_flight     BOOLEAN NOT NULL DEFAULT FALSE,
		claimed_until TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_retry_queue_due ON retry_queue (next_run_at)`,
	`CREATE TABLE IF NOT EXISTS validation_settings (
		id                   INTEGER PRIMARY KEY CHECK (id = 1),
		version              INTEGER NOT NULL,
		min_length           INTEGER NOT NULL,
		max_length           INTEGER NOT NULL,
		tone_score_threshold DOUBLE PRECISION NOT NULL,
		prompt_template      TEXT NOT NULL,
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS logs (
		id         UUID PRIMARY KEY,
		type       TEXT NOT NULL,
		level      TEXT NOT NULL,
		source     TEXT NOT NULL DEFAULT '',
		message    TEXT NOT NULL,
		payload    JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs (created_at)`,
}

// Migrate creates the schema and seeds the settings row so a fresh
// database is immediately usable.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO validation_settings (id, version, min_length, max_length, tone_score_threshold, prompt_template)
		 VALUES (1, 1, 90, 170, 0.4, $1)
		 ON CONFLICT (id) DO NOTHING`,
		prompt.DefaultTemplate,
	)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}
