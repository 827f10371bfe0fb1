package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
)

// Drafts persists generated review drafts.
type Drafts struct {
	pool *pgxpool.Pool
}

var _ ports.DraftRepository = (*Drafts)(nil)

// NewDrafts wires the draft repository to a connection pool.
func NewDrafts(pool *pgxpool.Pool) *Drafts {
	return &Drafts{pool: pool}
}

// Save inserts a freshly validated draft.
func (r *Drafts) Save(ctx context.Context, draft domain.Draft) error {
	seo, err := marshalSEO(draft.SEO)
	if err != nil {
		return err
	}

	query, args, err := qb.Insert("drafts").
		Columns("id", "item_id", "content", "tone_score", "char_count",
			"status", "slug", "seo", "created_at", "updated_at", "published_at").
		Values(draft.ID, draft.ItemID, draft.Content, draft.ToneScore, draft.CharCount,
			string(draft.Status), draft.Slug, seo, draft.CreatedAt, draft.UpdatedAt, draft.PublishedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build draft insert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert draft %s: %w", draft.ID, err)
	}
	return nil
}

// Get loads one draft by id.
func (r *Drafts) Get(ctx context.Context, id string) (domain.Draft, error) {
	draft, err := scanDraft(r.pool.QueryRow(ctx, draftSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Draft{}, fmt.Errorf("draft %s not found", id)
	}
	if err != nil {
		return domain.Draft{}, fmt.Errorf("query draft %s: %w", id, err)
	}
	return draft, nil
}

// Update stores the mutable publication fields of an existing draft. The
// generated content itself never changes after creation.
func (r *Drafts) Update(ctx context.Context, draft domain.Draft) error {
	seo, err := marshalSEO(draft.SEO)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE drafts
		 SET status = $1, slug = $2, seo = $3, published_at = $4, updated_at = NOW()
		 WHERE id = $5`,
		string(draft.Status), draft.Slug, seo, draft.PublishedAt, draft.ID)
	if err != nil {
		return fmt.Errorf("update draft %s: %w", draft.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("draft %s not found", draft.ID)
	}
	return nil
}

// ListByStatus returns drafts in one publication state, newest first.
func (r *Drafts) ListByStatus(ctx context.Context, status domain.DraftStatus, limit int) ([]domain.Draft, error) {
	builder := qb.Select("id", "item_id", "content", "tone_score", "char_count",
		"status", "slug", "seo", "created_at", "updated_at", "published_at").
		From("drafts").
		Where(sq.Eq{"status": string(status)}).
		OrderBy("created_at DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build draft list: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list drafts by status %s: %w", status, err)
	}
	defer rows.Close()

	var drafts []domain.Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		drafts = append(drafts, draft)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drafts: %w", err)
	}
	return drafts, nil
}

// SlugExists reports whether another draft already owns the slug.
func (r *Drafts) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM drafts WHERE slug = $1 AND id <> $2)`,
		slug, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug %s: %w", slug, err)
	}
	return exists, nil
}

const draftSelect = `SELECT id, item_id, content, tone_score, char_count,
        status, slug, seo, created_at, updated_at, published_at
 FROM drafts`

func scanDraft(row pgx.Row) (domain.Draft, error) {
	var (
		draft domain.Draft
		seo   []byte
	)
	err := row.Scan(&draft.ID, &draft.ItemID, &draft.Content, &draft.ToneScore, &draft.CharCount,
		&draft.Status, &draft.Slug, &seo, &draft.CreatedAt, &draft.UpdatedAt, &draft.PublishedAt)
	if err != nil {
		return domain.Draft{}, err
	}
	if len(seo) > 0 {
		draft.SEO = &domain.SEOMeta{}
		if err := json.Unmarshal(seo, draft.SEO); err != nil {
			return domain.Draft{}, fmt.Errorf("decode seo: %w", err)
		}
	}
	return draft, nil
}

func marshalSEO(meta *domain.SEOMeta) ([]byte, error) {
	if meta == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode seo: %w", err)
	}
	return encoded, nil
}
