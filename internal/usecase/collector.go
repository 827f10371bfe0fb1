package usecase

import (
	"context"
	"log/slog"
	"sync"

	"ReviewPipeline/internal/domain"
	"ReviewPipeline/internal/ports"
	"ReviewPipeline/internal/quota"
)

// CollectorDeps wires the driven adapters into the collection run.
type CollectorDeps struct {
	Source  ports.SourceClient
	Items   ports.ItemRepository
	Logs    ports.LogStore
	Logger  *slog.Logger
	Weights map[domain.SourceKind]float64
	Sources map[domain.SourceKind][]string
}

// Collector pulls candidate items from the configured sources under a
// quota plan, deduplicates against already-known external ids, and persists
// the new candidates. Runs are serialized so a manual trigger racing the
// scheduled one cannot interleave dedup checks.
type Collector struct {
	source  ports.SourceClient
	items   ports.ItemRepository
	logs    ports.LogStore
	logger  *slog.Logger
	weights map[domain.SourceKind]float64
	sources map[domain.SourceKind][]string

	mu sync.Mutex
}

// RunResult summarizes one collection run.
type RunResult struct {
	Requested  int
	Collected  int
	BySource   map[domain.SourceKind]int
	NewItemIDs []string
}

// NewCollector constructs the collection use case.
func NewCollector(deps CollectorDeps) *Collector {
	weights := deps.Weights
	if weights == nil {
		weights = quota.DefaultWeights
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		source:  deps.Source,
		items:   deps.Items,
		logs:    deps.Logs,
		logger:  logger,
		weights: weights,
		sources: deps.Sources,
	}
}

// Run executes one collection run bounded by maxItems. Individual source
// and item failures are logged and skipped; they never abort the run.
func (c *Collector) Run(ctx context.Context, maxItems int) (RunResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := RunResult{
		Requested: maxItems,
		BySource:  map[domain.SourceKind]int{},
	}

	plan := quota.Plan(maxItems, c.weights, c.sources)
	c.logger.Info("collection run started", "requested", maxItems, "sources", len(plan))

	for _, alloc := range plan {
		if result.Collected >= maxItems {
			break
		}
		c.collectSource(ctx, alloc, maxItems, &result)
	}

	c.logger.Info("collection run finished",
		"requested", maxItems, "collected", result.Collected)
	c.appendLog(ctx, "info", "collection run finished", map[string]any{
		"requested": maxItems,
		"collected": result.Collected,
		"bySource":  result.BySource,
	})

	return result, nil
}

func (c *Collector) collectSource(ctx context.Context, alloc quota.Allocation, maxItems int, result *RunResult) {
	subs := alloc.Subs
	if len(subs) == 0 {
		subs = []string{""}
	}

	sourceCollected := 0
	for _, sub := range subs {
		if result.Collected >= maxItems || sourceCollected >= alloc.Quota {
			break
		}

		ref := domain.SourceRef{Kind: alloc.Kind, Sub: sub}
		limit := min(alloc.PerSub, alloc.Quota-sourceCollected, maxItems-result.Collected)

		candidates, err := c.source.FetchBySource(ctx, ref, limit)
		if err != nil {
			c.logger.Warn("source fetch failed", "source", ref.String(), "error", err)
			c.appendLog(ctx, "warn", "source fetch failed", map[string]any{
				"source": ref.String(), "error": err.Error(),
			})
			continue
		}

		for _, candidate := range candidates {
			if result.Collected >= maxItems || sourceCollected >= alloc.Quota {
				break
			}

			created, err := c.saveCandidate(ctx, candidate, ref)
			if err != nil {
				c.logger.Warn("candidate save failed",
					"source", ref.String(), "item", candidate.ID, "error", err)
				continue
			}
			if !created {
				c.logger.Debug("candidate already known", "item", candidate.ID)
				continue
			}

			result.Collected++
			sourceCollected++
			result.BySource[alloc.Kind]++
			result.NewItemIDs = append(result.NewItemIDs, candidate.ID)
		}
	}
}

func (c *Collector) saveCandidate(ctx context.Context, item domain.Item, ref domain.SourceRef) (bool, error) {
	affiliate, err := c.source.ShortenURL(ctx, item.ProductURL)
	if err != nil {
		// The deeplink collaborator failing must not drop the candidate;
		// fall back to the raw product URL.
		c.logger.Warn("deeplink failed, using raw url", "item", item.ID, "error", err)
		affiliate = item.ProductURL
	}

	item.AffiliateURL = affiliate
	item.Source = ref
	item.Status = domain.ItemPending
	return c.items.InsertIfAbsent(ctx, item)
}

func (c *Collector) appendLog(ctx context.Context, level, message string, payload map[string]any) {
	if c.logs == nil {
		return
	}
	err := c.logs.Append(ctx, domain.LogEntry{
		Type:    "collection",
		Level:   level,
		Source:  "collector",
		Message: message,
		Payload: payload,
	})
	if err != nil {
		c.logger.Warn("append log failed", "error", err)
	}
}
