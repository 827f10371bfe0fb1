package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
	"ReviewPipeline/internal/prompt"
	"ReviewPipeline/internal/validate"
)

// GeneratorDeps wires the driven adapters into the generation use case.
type GeneratorDeps struct {
	Items    ports.ItemRepository
	Drafts   ports.DraftRepository
	Queue    ports.RetryQueue
	Settings ports.SettingsRepository
	Model    ports.Completer
	Renderer prompt.Renderer
	Logs     ports.LogStore
	Notifier ports.Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// Generator runs a single review-generation attempt for an item: it takes
// an immutable settings snapshot, renders the prompt, calls the model, and
// gates the result through the content validator. A successful attempt
// creates a Draft and clears any pending retry entry for the item.
type Generator struct {
	items    ports.ItemRepository
	drafts   ports.DraftRepository
	queue    ports.RetryQueue
	settings ports.SettingsRepository
	model    ports.Completer
	renderer prompt.Renderer
	logs     ports.LogStore
	notifier ports.Notifier
	logger   *slog.Logger
	check    *validator.Validate
	now      func() time.Time
}

// NewGenerator constructs the generation use case.
func NewGenerator(deps GeneratorDeps) *Generator {
	renderer := deps.Renderer
	if renderer == nil {
		renderer = prompt.PlaceholderRenderer{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Generator{
		items:    deps.Items,
		drafts:   deps.Drafts,
		queue:    deps.Queue,
		settings: deps.Settings,
		model:    deps.Model,
		renderer: renderer,
		logs:     deps.Logs,
		notifier: deps.Notifier,
		logger:   logger,
		check:    validator.New(validator.WithRequiredStructEnabled()),
		now:      now,
	}
}

// Generate runs one attempt. The returned error is classified: transport
// failures are transient, content rejections are validation failures, and
// broken settings are configuration errors that must not be retried.
func (g *Generator) Generate(ctx context.Context, itemID, origin string) error {
	item, err := g.items.Get(ctx, itemID)
	if err != nil {
		return fmt.Errorf("load item %s: %w", itemID, err)
	}

	settings, err := g.settings.Current(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if err := g.check.Struct(settings); err != nil {
		return domain.ConfigError(err)
	}

	if err := g.items.SetStatus(ctx, item.ID, domain.ItemProcessing); err != nil {
		g.logger.Warn("mark item processing failed", "item", item.ID, "error", err)
	}

	rendered := g.renderer.Render(settings.PromptTemplate, prompt.Vars(item, settings))

	text, err := g.model.Complete(ctx, rendered)
	if err != nil {
		g.logAttempt(ctx, item.ID, origin, "error", err.Error(), nil)
		return domain.TransientError(domain.CodeGenerationAPI, err)
	}

	result, err := validate.Review(text, settings)
	if err != nil {
		g.logAttempt(ctx, item.ID, origin, "error", err.Error(), map[string]any{
			"settingsVersion": settings.Version,
		})
		return err
	}

	draft := domain.Draft{
		ID:        uuid.NewString(),
		ItemID:    item.ID,
		Content:   text,
		ToneScore: result.ToneScore,
		CharCount: result.CharCount,
		Status:    domain.DraftStatusDraft,
		CreatedAt: g.now(),
		UpdatedAt: g.now(),
	}
	if err := g.drafts.Save(ctx, draft); err != nil {
		return fmt.Errorf("save draft for item %s: %w", item.ID, err)
	}

	if err := g.queue.Delete(ctx, item.ID); err != nil {
		g.logger.Warn("drop retry entry failed", "item", item.ID, "error", err)
	}
	if err := g.items.SetStatus(ctx, item.ID, domain.ItemCompleted); err != nil {
		g.logger.Warn("mark item completed failed", "item", item.ID, "error", err)
	}

	g.logger.Info("draft created",
		"item", item.ID, "draft", draft.ID,
		"toneScore", result.ToneScore, "charCount", result.CharCount, "origin", origin)
	g.logAttempt(ctx, item.ID, origin, "info", "draft created", map[string]any{
		"draftId":         draft.ID,
		"toneScore":       result.ToneScore,
		"charCount":       result.CharCount,
		"settingsVersion": settings.Version,
	})
	g.notify(ctx, "info", "Draft created",
		fmt.Sprintf("item=%s draft=%s origin=%s", item.ID, draft.ID, origin))

	return nil
}

func (g *Generator) logAttempt(ctx context.Context, itemID, origin, level, message string, payload map[string]any) {
	if g.logs == nil {
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload["itemId"] = itemID
	payload["origin"] = origin
	err := g.logs.Append(ctx, domain.LogEntry{
		Type:    "generation",
		Level:   level,
		Source:  origin,
		Message: message,
		Payload: payload,
	})
	if err != nil {
		g.logger.Warn("append log failed", "error", err)
	}
}

func (g *Generator) notify(ctx context.Context, level, title, text string) {
	if g.notifier == nil {
		return
	}
	if err := g.notifier.Notify(ctx, level, title, text); err != nil {
		g.logger.Warn("notify failed", "error", err)
	}
}
