package usecase

import (
	"context"
	"log/slog"
)

// Pipeline chains a collection run with first-attempt generation for every
// newly persisted candidate. Generation failures land in the retry queue
// and never abort the run.
type Pipeline struct {
	collector      *Collector
	retries        *RetryScheduler
	maxItemsPerRun int
	logger         *slog.Logger
}

// NewPipeline constructs the orchestration component. maxItemsPerRun is
// the default batch size for scheduled runs; operator triggers may pass an
// explicit override.
func NewPipeline(collector *Collector, retries *RetryScheduler, maxItemsPerRun int, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		collector:      collector,
		retries:        retries,
		maxItemsPerRun: maxItemsPerRun,
		logger:         logger,
	}
}

// RunCollection collects up to maxItems candidates (the configured default
// when maxItems is zero) and kicks off a first generation attempt for each
// new item.
func (p *Pipeline) RunCollection(ctx context.Context, maxItems int) (RunResult, error) {
	if maxItems <= 0 {
		maxItems = p.maxItemsPerRun
	}

	result, err := p.collector.Run(ctx, maxItems)
	if err != nil {
		return result, err
	}

	for _, id := range result.NewItemIDs {
		if err := p.retries.Process(ctx, id, "trigger"); err != nil {
			p.logger.Debug("first generation attempt failed", "item", id, "error", err)
		}
	}

	return result, nil
}
