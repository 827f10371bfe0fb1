package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
	"ReviewPipeline/internal/publication"
)

const slugRetryLimit = 100

// AdminDeps wires the operator-facing use case.
type AdminDeps struct {
	Pipeline *Pipeline
	Retries  *RetryScheduler
	Drafts   ports.DraftRepository
	Items    ports.ItemRepository
	Logs     ports.LogStore
	Settings ports.SettingsRepository
	Notifier ports.Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// Admin exposes the operator actions consumed by the dashboard: triggered
// collection runs, force regeneration, bulk retry cancellation, draft
// state transitions, and the listing/statistics views.
type Admin struct {
	pipeline *Pipeline
	retries  *RetryScheduler
	drafts   ports.DraftRepository
	items    ports.ItemRepository
	logs     ports.LogStore
	settings ports.SettingsRepository
	notifier ports.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewAdmin constructs the operator use case.
func NewAdmin(deps AdminDeps) *Admin {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Admin{
		pipeline: deps.Pipeline,
		retries:  deps.Retries,
		drafts:   deps.Drafts,
		items:    deps.Items,
		logs:     deps.Logs,
		settings: deps.Settings,
		notifier: deps.Notifier,
		logger:   logger,
		now:      now,
	}
}

// TriggerCollection starts a collection run with an explicit batch size.
func (a *Admin) TriggerCollection(ctx context.Context, maxItems int) (RunResult, error) {
	return a.pipeline.RunCollection(ctx, maxItems)
}

// ForceRegenerate runs a generation attempt for one item immediately,
// bypassing quota allocation. It is the recovery path for terminally
// failed items; a fresh failure re-enters the retry queue as usual.
func (a *Admin) ForceRegenerate(ctx context.Context, itemID string) error {
	a.logger.Info("force regenerate requested", "item", itemID)
	return a.retries.Process(ctx, itemID, "manual")
}

// CancelRetries drops every pending retry entry immediately.
func (a *Admin) CancelRetries(ctx context.Context) (int64, error) {
	return a.retries.CancelAll(ctx)
}

// TransitionDraft applies a publication state transition requested by the
// operator. Reaching published enriches the draft with a unique slug and
// SEO metadata derived from its item.
func (a *Admin) TransitionDraft(ctx context.Context, draftID string, to domain.DraftStatus) (domain.Draft, error) {
	draft, err := a.drafts.Get(ctx, draftID)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("load draft %s: %w", draftID, err)
	}
	from := draft.Status

	if err := publication.Transition(&draft, to, a.now()); err != nil {
		return domain.Draft{}, err
	}

	if to == domain.DraftStatusPublished {
		if err := a.enrichForPublication(ctx, &draft); err != nil {
			return domain.Draft{}, err
		}
	}

	if err := a.drafts.Update(ctx, draft); err != nil {
		return domain.Draft{}, fmt.Errorf("update draft %s: %w", draftID, err)
	}

	a.logger.Info("draft transitioned", "draft", draftID, "from", from, "to", to)
	a.appendLog(ctx, "admin_action", "info", "draft transitioned", map[string]any{
		"draftId": draftID,
		"from":    string(from),
		"to":      string(to),
	})
	if to == domain.DraftStatusPublished {
		a.notify(ctx, "info", "Review published",
			fmt.Sprintf("draft=%s slug=%s", draft.ID, draft.Slug))
	}

	return draft, nil
}

func (a *Admin) enrichForPublication(ctx context.Context, draft *domain.Draft) error {
	item, err := a.items.Get(ctx, draft.ItemID)
	if err != nil {
		return fmt.Errorf("load item %s for publication: %w", draft.ItemID, err)
	}

	if draft.Slug == "" {
		slug, err := a.uniqueSlug(ctx, publication.Slug(item.Name, item.ID), draft.ID)
		if err != nil {
			return err
		}
		draft.Slug = slug
	}
	if draft.SEO == nil {
		draft.SEO = publication.BuildSEO(item, draft.Content)
	}
	return nil
}

func (a *Admin) uniqueSlug(ctx context.Context, base, draftID string) (string, error) {
	slug := base
	for counter := 2; counter <= slugRetryLimit; counter++ {
		taken, err := a.drafts.SlugExists(ctx, slug, draftID)
		if err != nil {
			return "", fmt.Errorf("check slug %s: %w", slug, err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
	return "", fmt.Errorf("no unique slug for %s after %d tries", base, slugRetryLimit)
}

// ListDrafts returns drafts in the given publication state for the admin
// listing.
func (a *Admin) ListDrafts(ctx context.Context, status domain.DraftStatus, limit int) ([]domain.Draft, error) {
	return a.drafts.ListByStatus(ctx, status, limit)
}

// LogStats aggregates pipeline log counts by type, level and day.
func (a *Admin) LogStats(ctx context.Context, since time.Time) ([]domain.LogStat, error) {
	return a.logs.Stats(ctx, since)
}

// Settings returns the current validation settings snapshot.
func (a *Admin) Settings(ctx context.Context) (domain.ValidationSettings, error) {
	return a.settings.Current(ctx)
}

// UpdateSettings stores a new settings version. Attempts already enqueued
// keep the snapshot they were started with.
func (a *Admin) UpdateSettings(ctx context.Context, s domain.ValidationSettings) (domain.ValidationSettings, error) {
	updated, err := a.settings.Update(ctx, s)
	if err != nil {
		return domain.ValidationSettings{}, err
	}
	a.appendLog(ctx, "admin_action", "info", "settings updated", map[string]any{
		"version": updated.Version,
	})
	return updated, nil
}

func (a *Admin) appendLog(ctx context.Context, typ, level, message string, payload map[string]any) {
	if a.logs == nil {
		return
	}
	err := a.logs.Append(ctx, domain.LogEntry{
		Type:    typ,
		Level:   level,
		Source:  "admin",
		Message: message,
		Payload: payload,
	})
	if err != nil {
		a.logger.Warn("append log failed", "error", err)
	}
}

func (a *Admin) notify(ctx context.Context, level, title, text string) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(ctx, level, title, text); err != nil {
		a.logger.Warn("notify failed", "error", err)
	}
}
