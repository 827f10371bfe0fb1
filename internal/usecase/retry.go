package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
)

const (
	defaultBaseDelay   = 5 * time.Minute
	defaultMaxAttempts = 3
	defaultDrainBatch  = 20
	defaultWorkers     = 4
)

// RetrySchedulerDeps wires the retry use case.
type RetrySchedulerDeps struct {
	Queue       ports.RetryQueue
	Items       ports.ItemRepository
	Generator   *Generator
	Logs        ports.LogStore
	Notifier    ports.Notifier
	Logger      *slog.Logger
	BaseDelay   time.Duration
	MaxAttempts int
	DrainBatch  int
	Workers     int
	Now         func() time.Time
}

// RetryScheduler owns the durable queue of failed generation attempts. It
// computes exponential backoff, re-invokes the generator on a periodic
// drain, bounds total attempts, and guarantees at most one in-flight
// attempt per item via queue-level claims.
type RetryScheduler struct {
	queue       ports.RetryQueue
	items       ports.ItemRepository
	generator   *Generator
	logs        ports.LogStore
	notifier    ports.Notifier
	logger      *slog.Logger
	baseDelay   time.Duration
	maxAttempts int
	drainBatch  int
	workers     int
	now         func() time.Time
}

// NewRetryScheduler constructs the retry use case with production defaults
// for any zero-valued knob.
func NewRetryScheduler(deps RetrySchedulerDeps) *RetryScheduler {
	s := &RetryScheduler{
		queue:       deps.Queue,
		items:       deps.Items,
		generator:   deps.Generator,
		logs:        deps.Logs,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
		baseDelay:   deps.BaseDelay,
		maxAttempts: deps.MaxAttempts,
		drainBatch:  deps.DrainBatch,
		workers:     deps.Workers,
		now:         deps.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.baseDelay <= 0 {
		s.baseDelay = defaultBaseDelay
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	if s.drainBatch <= 0 {
		s.drainBatch = defaultDrainBatch
	}
	if s.workers <= 0 {
		s.workers = defaultWorkers
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Backoff returns the delay before the given attempt is retried:
// baseDelay * 2^(attempt-1), unbounded. MaxAttempts bounds the wall-clock
// retry horizon instead of a delay cap.
func (s *RetryScheduler) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return s.baseDelay * time.Duration(1<<(attempt-1))
}

// Process runs one generation attempt for the item and routes any failure
// into the queue. The item's failure never propagates as a run failure.
func (s *RetryScheduler) Process(ctx context.Context, itemID, origin string) error {
	err := s.generator.Generate(ctx, itemID, origin)
	if err == nil {
		return nil
	}
	s.recordFailure(ctx, itemID, origin, err)
	return err
}

func (s *RetryScheduler) recordFailure(ctx context.Context, itemID, origin string, cause error) {
	class := domain.ClassOf(cause)

	if class == domain.ClassConfig {
		// Broken settings fail fast and must not burn the item's attempt
		// budget; release any claim and leave the entry as it was.
		s.logger.Error("generation aborted on configuration error",
			"item", itemID, "error", cause)
		if err := s.queue.Release(ctx, itemID); err != nil {
			s.logger.Warn("release retry claim failed", "item", itemID, "error", err)
		}
		return
	}

	entry, err := s.queue.Bump(ctx, itemID, cause.Error(), s.Backoff)
	if err != nil {
		// The entry keeps its claim; the lease lapses and a later drain
		// reclaims it.
		s.logger.Error("record generation failure failed", "item", itemID, "error", err)
		return
	}

	s.logger.Warn("generation failed, retry scheduled",
		"item", itemID, "class", class, "attempt", entry.Attempt,
		"nextRunAt", entry.NextRunAt, "origin", origin, "error", cause)
	s.appendLog(ctx, "warn", "retry scheduled", map[string]any{
		"itemId":    itemID,
		"class":     string(class),
		"attempt":   entry.Attempt,
		"nextRunAt": entry.NextRunAt,
		"error":     cause.Error(),
	})
	s.notify(ctx, "warn", "Generation failed",
		fmt.Sprintf("item=%s attempt=%d class=%s next=%s",
			itemID, entry.Attempt, class, entry.NextRunAt.Format(time.RFC3339)))
}

// Drain claims every entry whose nextRunAt has passed and re-attempts
// generation through a bounded worker pool. Entries past the attempt
// budget are deleted and their items terminally failed. A claim error
// skips the whole tick; the next tick retries it, which is safe because
// nextRunAt comparisons are idempotent and claims are leases that lapse
// when an attempt is abandoned.
func (s *RetryScheduler) Drain(ctx context.Context) error {
	entries, err := s.queue.ClaimDue(ctx, s.now(), s.drainBatch)
	if err != nil {
		return fmt.Errorf("claim due retries: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	s.logger.Debug("retry drain tick", "due", len(entries))

	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for _, entry := range entries {
		entry := entry
		if entry.Attempt > s.maxAttempts {
			s.failTerminally(ctx, entry)
			continue
		}
		g.Go(func() error {
			// Per-item failures are recorded by Process; they must not
			// abort the remaining entries.
			_ = s.Process(ctx, entry.ItemID, "retry")
			return nil
		})
	}

	return g.Wait()
}

func (s *RetryScheduler) failTerminally(ctx context.Context, entry domain.RetryEntry) {
	if err := s.queue.Delete(ctx, entry.ItemID); err != nil {
		// The claim lease lapses and a later drain retakes this path.
		s.logger.Error("delete exhausted retry entry failed", "item", entry.ItemID, "error", err)
		return
	}
	if err := s.items.SetStatus(ctx, entry.ItemID, domain.ItemFailed); err != nil {
		s.logger.Error("mark item failed failed", "item", entry.ItemID, "error", err)
	}

	s.logger.Error("retry budget exhausted",
		"item", entry.ItemID, "failures", entry.Attempt, "lastError", entry.LastError)
	s.appendLog(ctx, "error", "retry budget exhausted", map[string]any{
		"itemId":    entry.ItemID,
		"code":      string(domain.CodeMaxAttempts),
		"failures":  entry.Attempt,
		"lastError": entry.LastError,
	})
	s.notify(ctx, "error", "Generation abandoned",
		fmt.Sprintf("item=%s failed %d times; operator intervention required",
			entry.ItemID, entry.Attempt))
}

// CancelAll drops every pending retry immediately regardless of nextRunAt
// and marks the abandoned items failed, so they land in a terminal status
// instead of sitting in processing forever; force-regenerate recovers
// them. Generations already in flight are not interrupted and may still
// produce a draft, overwriting the failed status on completion.
func (s *RetryScheduler) CancelAll(ctx context.Context) (int64, error) {
	ids, err := s.queue.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("cancel retries: %w", err)
	}

	for _, id := range ids {
		if err := s.items.SetStatus(ctx, id, domain.ItemFailed); err != nil {
			s.logger.Warn("mark cancelled item failed failed", "item", id, "error", err)
		}
	}

	dropped := int64(len(ids))
	s.logger.Info("all pending retries cancelled", "dropped", dropped)
	s.appendLog(ctx, "info", "retries cancelled", map[string]any{"dropped": dropped})
	return dropped, nil
}

func (s *RetryScheduler) appendLog(ctx context.Context, level, message string, payload map[string]any) {
	if s.logs == nil {
		return
	}
	err := s.logs.Append(ctx, domain.LogEntry{
		Type:    "retry",
		Level:   level,
		Source:  "retry-scheduler",
		Message: message,
		Payload: payload,
	})
	if err != nil {
		s.logger.Warn("append log failed", "error", err)
	}
}

func (s *RetryScheduler) notify(ctx context.Context, level, title, text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, level, title, text); err != nil {
		s.logger.Warn("notify failed", "error", err)
	}
}
