package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
)

// Items persists collected product candidates.
type Items struct {
	pool *pgxpool.Pool
}

var _ ports.ItemRepository = (*Items)(nil)

// NewItems wires the item repository to a connection pool.
func NewItems(pool *pgxpool.Pool) *Items {
	return &Items{pool: pool}
}

// InsertIfAbsent creates the item unless the external id is already known.
// The conflict target makes concurrent collection runs deduplicate at the
// database, not in memory.
func (r *Items) InsertIfAbsent(ctx context.Context, item domain.Item) (bool, error) {
	query, args, err := qb.Insert("items").
		Columns("id", "name", "price", "image_url", "category",
			"product_url", "affiliate_url", "source_kind", "source_sub", "status").
		Values(item.ID, item.Name, item.Price, item.ImageURL, item.Category,
			item.ProductURL, item.AffiliateURL, string(item.Source.Kind), item.Source.Sub, string(item.Status)).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build item insert: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert item %s: %w", item.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Get loads one item by its external id.
func (r *Items) Get(ctx context.Context, id string) (domain.Item, error) {
	var item domain.Item
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price, image_url, category, product_url, affiliate_url,
		        source_kind, source_sub, status, created_at, updated_at
		 FROM items WHERE id = $1`, id,
	).Scan(&item.ID, &item.Name, &item.Price, &item.ImageURL, &item.Category,
		&item.ProductURL, &item.AffiliateURL,
		&item.Source.Kind, &item.Source.Sub, &item.Status,
		&item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Item{}, fmt.Errorf("item %s not found", id)
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("query item %s: %w", id, err)
	}
	return item, nil
}

// SetStatus advances the item's collection-side milestone.
func (r *Items) SetStatus(ctx context.Context, id string, status domain.ItemStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE items SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("update item %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s not found", id)
	}
	return nil
}
