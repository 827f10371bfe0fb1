package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
)

// claimLease bounds how long a drain claim hides an entry. Generation is
// capped at 60s by the model client; an entry whose claim outlives this
// window was abandoned and becomes eligible again.
const claimLease = 15 * time.Minute

// RetryQueue is the durable per-item queue of failed generation attempts.
// The attempt counter is maintained inside the database so concurrent
// failure reports for one item cannot race it.
type RetryQueue struct {
	pool *pgxpool.Pool
}

var _ ports.RetryQueue = (*RetryQueue)(nil)

// NewRetryQueue wires the retry queue to a connection pool.
func NewRetryQueue(pool *pgxpool.Pool) *RetryQueue {
	return &RetryQueue{pool: pool}
}

// Bump records a failure for the item: the entry is created with attempt 1
// or its counter incremented in place, then the next eligible time is set
// from the resulting attempt. Both steps run in one transaction so the
// entry is never visible with a stale nextRunAt.
func (q *RetryQueue) Bump(ctx context.Context, itemID, lastError string, backoff func(attempt int) time.Duration) (domain.RetryEntry, error) {
	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return domain.RetryEntry{}, fmt.Errorf("begin bump for %s: %w", itemID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	entry := domain.RetryEntry{ItemID: itemID, LastError: lastError}
	err = tx.QueryRow(ctx,
		`INSERT INTO retry_queue (item_id, attempt, next_run_at, last_error, in_flight, claimed_until, updated_at)
		 VALUES ($1, 1, NOW(), $2, FALSE, 'epoch', NOW())
		 ON CONFLICT (item_id) DO UPDATE
		 SET attempt = retry_queue.attempt + 1,
		     last_error = EXCLUDED.last_error,
		     in_flight = FALSE,
		     claimed_until = 'epoch',
		     updated_at = NOW()
		 RETURNING attempt`,
		itemID, lastError,
	).Scan(&entry.Attempt)
	if err != nil {
		return domain.RetryEntry{}, fmt.Errorf("bump retry for %s: %w", itemID, err)
	}

	err = tx.QueryRow(ctx,
		`UPDATE retry_queue SET next_run_at = NOW() + $2 WHERE item_id = $1
		 RETURNING next_run_at, updated_at`,
		itemID, backoff(entry.Attempt),
	).Scan(&entry.NextRunAt, &entry.UpdatedAt)
	if err != nil {
		return domain.RetryEntry{}, fmt.Errorf("schedule retry for %s: %w", itemID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.RetryEntry{}, fmt.Errorf("commit bump for %s: %w", itemID, err)
	}
	return entry, nil
}

// ClaimDue leases every eligible entry and returns it. SKIP LOCKED keeps
// two overlapping drains from claiming the same entry; the claimed_until
// window lets an entry abandoned mid-flight be reclaimed once it lapses.
func (q *RetryQueue) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.RetryEntry, error) {
	rows, err := q.pool.Query(ctx,
		`UPDATE retry_queue SET in_flight = TRUE, claimed_until = $1 + $3
		 WHERE item_id IN (
		 	SELECT item_id FROM retry_queue
		 	WHERE next_run_at <= $1 AND (NOT in_flight OR claimed_until <= $1)
		 	ORDER BY next_run_at
		 	LIMIT $2
		 	FOR UPDATE SKIP LOCKED
		 )
		 RETURNING item_id, attempt, next_run_at, last_error, in_flight, claimed_until, updated_at`,
		now, limit, claimLease)
	if err != nil {
		return nil, fmt.Errorf("claim due retries: %w", err)
	}
	defer rows.Close()

	var entries []domain.RetryEntry
	for rows.Next() {
		var entry domain.RetryEntry
		err := rows.Scan(&entry.ItemID, &entry.Attempt, &entry.NextRunAt,
			&entry.LastError, &entry.InFlight, &entry.ClaimedUntil, &entry.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan retry entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate retry entries: %w", err)
	}
	return entries, nil
}

// Release clears the in-flight claim without touching the attempt counter.
func (q *RetryQueue) Release(ctx context.Context, itemID string) error {
	_, err := q.pool.Exec(ctx,
		`UPDATE retry_queue SET in_flight = FALSE, claimed_until = 'epoch' WHERE item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("release retry claim for %s: %w", itemID, err)
	}
	return nil
}

// ReleaseAbandoned clears every outstanding claim. Called once at startup:
// a claim that survived a process restart belongs to an attempt that no
// longer exists.
func (q *RetryQueue) ReleaseAbandoned(ctx context.Context) (int64, error) {
	tag, err := q.pool.Exec(ctx,
		`UPDATE retry_queue SET in_flight = FALSE, claimed_until = 'epoch' WHERE in_flight`)
	if err != nil {
		return 0, fmt.Errorf("release abandoned retry claims: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Get loads the entry for one item.
func (q *RetryQueue) Get(ctx context.Context, itemID string) (domain.RetryEntry, bool, error) {
	var entry domain.RetryEntry
	err := q.pool.QueryRow(ctx,
		`SELECT item_id, attempt, next_run_at, last_error, in_flight, claimed_until, updated_at
		 FROM retry_queue WHERE item_id = $1`, itemID,
	).Scan(&entry.ItemID, &entry.Attempt, &entry.NextRunAt,
		&entry.LastError, &entry.InFlight, &entry.ClaimedUntil, &entry.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RetryEntry{}, false, nil
	}
	if err != nil {
		return domain.RetryEntry{}, false, fmt.Errorf("query retry entry for %s: %w", itemID, err)
	}
	return entry, true, nil
}

// Delete removes the entry for one item; a missing entry is not an error.
func (q *RetryQueue) Delete(ctx context.Context, itemID string) error {
	if _, err := q.pool.Exec(ctx, `DELETE FROM retry_queue WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("delete retry entry for %s: %w", itemID, err)
	}
	return nil
}

// DeleteAll drops every entry and returns the item ids that were pending.
func (q *RetryQueue) DeleteAll(ctx context.Context) ([]string, error) {
	rows, err := q.pool.Query(ctx, `DELETE FROM retry_queue RETURNING item_id`)
	if err != nil {
		return nil, fmt.Errorf("delete all retry entries: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan cancelled retry entry: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cancelled retry entries: %w", err)
	}
	return ids, nil
}
