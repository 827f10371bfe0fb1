package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
)

// Logs is the append-only pipeline log store behind the admin statistics
// view.
type Logs struct {
	pool *pgxpool.Pool
}

var _ ports.LogStore = (*Logs)(nil)

// NewLogs wires the log store to a connection pool.
func NewLogs(pool *pgxpool.Pool) *Logs {
	return &Logs{pool: pool}
}

// Append stores one log record, assigning an id when the caller left it
// empty.
func (r *Logs) Append(ctx context.Context, entry domain.LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	var payload []byte
	if entry.Payload != nil {
		encoded, err := json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("encode log payload: %w", err)
		}
		payload = encoded
	}

	query, args, err := qb.Insert("logs").
		Columns("id", "type", "level", "source", "message", "payload").
		Values(entry.ID, entry.Type, entry.Level, entry.Source, entry.Message, payload).
		ToSql()
	if err != nil {
		return fmt.Errorf("build log insert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

// Stats aggregates log counts by type, level and day.
func (r *Logs) Stats(ctx context.Context, since time.Time) ([]domain.LogStat, error) {
	builder := qb.Select("type", "level", "date_trunc('day', created_at) AS day", "count(*)").
		From("logs").
		GroupBy("type", "level", "day").
		OrderBy("day DESC", "type", "level")
	if !since.IsZero() {
		builder = builder.Where(sq.GtOrEq{"created_at": since})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build log stats: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query log stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.LogStat
	for rows.Next() {
		var stat domain.LogStat
		if err := rows.Scan(&stat.Type, &stat.Level, &stat.Day, &stat.Count); err != nil {
			return nil, fmt.Errorf("scan log stat: %w", err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log stats: %w", err)
	}
	return stats, nil
}
