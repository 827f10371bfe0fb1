package usecase

import (
	"context"
	"log/slog"
	"time"

	"ReviewPipeline/internal/ports"
)

// Scheduler wires the two recurring drivers with the pipeline: a daily
// collection run and a frequent retry drain.
type Scheduler struct {
	collectDriver ports.Scheduler
	drainDriver   ports.Scheduler
	pipeline      *Pipeline
	retries       *RetryScheduler
	logger        *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring jobs.
func NewScheduler(collect, drain ports.Scheduler, pipeline *Pipeline, retries *RetryScheduler, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		collectDriver: collect,
		drainDriver:   drain,
		pipeline:      pipeline,
		retries:       retries,
		logger:        logger,
	}
}

// Start registers both jobs with their drivers.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.collectDriver != nil && s.pipeline != nil {
		job := func(time.Time) {
			if _, err := s.pipeline.RunCollection(ctx, 0); err != nil {
				s.logger.Error("scheduled collection run failed", "error", err)
			}
		}
		if err := s.collectDriver.Start(ctx, job); err != nil {
			return err
		}
	}

	if s.drainDriver != nil && s.retries != nil {
		job := func(time.Time) {
			if err := s.retries.Drain(ctx); err != nil {
				// Skip the tick; the next one redoes the same idempotent
				// nextRunAt comparison.
				s.logger.Warn("retry drain tick skipped", "error", err)
			}
		}
		if err := s.drainDriver.Start(ctx, job); err != nil {
			return err
		}
	}

	return nil
}

// Stop gracefully tears down both drivers.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.collectDriver != nil {
		if err := s.collectDriver.Stop(ctx); err != nil {
			return err
		}
	}
	if s.drainDriver != nil {
		return s.drainDriver.Stop(ctx)
	}
	return nil
}
