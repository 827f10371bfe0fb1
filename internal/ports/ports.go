package ports

import (
	"context"
	"time"

	"ReviewPipeline/internal/domain"
)

// SourceClient pulls candidate products from the affiliate API and derives
// shortened affiliate links. Both calls may fail transiently; failures are
// isolated per source at the collector level.
type SourceClient interface {
	FetchBySource(ctx context.Context, src domain.SourceRef, limit int) ([]domain.Item, error)
	ShortenURL(ctx context.Context, rawURL string) (string, error)
}

// ItemRepository persists collected product candidates.
type ItemRepository interface {
	// InsertIfAbsent atomically creates the item unless one with the same
	// external id already exists; it reports whether a row was created.
	InsertIfAbsent(ctx context.Context, item domain.Item) (bool, error)
	Get(ctx context.Context, id string) (domain.Item, error)
	SetStatus(ctx context.Context, id string, status domain.ItemStatus) error
}

// DraftRepository persists generated review drafts.
type DraftRepository interface {
	Save(ctx context.Context, draft domain.Draft) error
	Get(ctx context.Context, id string) (domain.Draft, error)
	Update(ctx context.Context, draft domain.Draft) error
	ListByStatus(ctx context.Context, status domain.DraftStatus, limit int) ([]domain.Draft, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
}

// RetryQueue is the durable per-item queue of failed generation attempts.
type RetryQueue interface {
	// Bump records a failure: it creates the entry with attempt 1 or
	// atomically increments the existing one, computes the next eligible
	// time from the resulting attempt via backoff, and clears any in-flight
	// claim.
	Bump(ctx context.Context, itemID, lastError string, backoff func(attempt int) time.Duration) (domain.RetryEntry, error)
	// ClaimDue marks all entries eligible at now (bounded by limit) as
	// in-flight and returns them. A claim is a lease: it hides the entry
	// from subsequent claims until it is bumped, deleted, released, or the
	// lease expires, so an attempt abandoned mid-flight (process crash,
	// failed failure-report) is reclaimed on a later tick instead of being
	// stranded forever.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.RetryEntry, error)
	// Release clears the in-flight claim without touching the attempt
	// counter; used when an attempt is abandoned for reasons that are not
	// the item's fault (configuration errors).
	Release(ctx context.Context, itemID string) error
	Get(ctx context.Context, itemID string) (domain.RetryEntry, bool, error)
	Delete(ctx context.Context, itemID string) error
	// DeleteAll is the operator bulk cancellation; it returns the item ids
	// of every dropped entry so the caller can settle their statuses.
	DeleteAll(ctx context.Context) ([]string, error)
}

// SettingsRepository exposes the current validation settings snapshot.
type SettingsRepository interface {
	Current(ctx context.Context) (domain.ValidationSettings, error)
	Update(ctx context.Context, s domain.ValidationSettings) (domain.ValidationSettings, error)
}

// LogStore appends pipeline log records and aggregates them for the admin
// statistics view.
type LogStore interface {
	Append(ctx context.Context, entry domain.LogEntry) error
	Stats(ctx context.Context, since time.Time) ([]domain.LogStat, error)
}

// Completer invokes the external language model with a rendered prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Notifier pushes pipeline milestones to an operator channel.
type Notifier interface {
	Notify(ctx context.Context, level, title, text string) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
