package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
)

// Settings stores the single versioned validation-settings snapshot.
type Settings struct {
	pool *pgxpool.Pool
}

var _ ports.SettingsRepository = (*Settings)(nil)

// NewSettings wires the settings repository to a connection pool.
func NewSettings(pool *pgxpool.Pool) *Settings {
	return &Settings{pool: pool}
}

// Current returns the settings snapshot seeded by Migrate and maintained
// through Update.
func (r *Settings) Current(ctx context.Context) (domain.ValidationSettings, error) {
	var s domain.ValidationSettings
	err := r.pool.QueryRow(ctx,
		`SELECT version, min_length, max_length, tone_score_threshold, prompt_template, updated_at
		 FROM validation_settings WHERE id = 1`,
	).Scan(&s.Version, &s.MinLength, &s.MaxLength, &s.ToneScoreThreshold, &s.PromptTemplate, &s.UpdatedAt)
	if err != nil {
		return domain.ValidationSettings{}, fmt.Errorf("query settings: %w", err)
	}
	return s, nil
}

// Update writes a new snapshot, bumping the version in the database.
func (r *Settings) Update(ctx context.Context, s domain.ValidationSettings) (domain.ValidationSettings, error) {
	err := r.pool.QueryRow(ctx,
		`UPDATE validation_settings
		 SET version = version + 1,
		     min_length = $1,
		     max_length = $2,
		     tone_score_threshold = $3,
		     prompt_template = $4,
		     updated_at = NOW()
		 WHERE id = 1
		 RETURNING version, updated_at`,
		s.MinLength, s.MaxLength, s.ToneScoreThreshold, s.PromptTemplate,
	).Scan(&s.Version, &s.UpdatedAt)
	if err != nil {
		return domain.ValidationSettings{}, fmt.Errorf("update settings: %w", err)
	}
	return s, nil
}
