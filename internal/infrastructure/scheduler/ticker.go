// Package scheduler drives recurring pipeline jobs with a time.Ticker.
package scheduler

import (
	"context"
	"time"

	"ReviewPipeline/internal/ports"
)

// TickerScheduler runs a job on a fixed interval. With Immediate set the
// job also fires once right after Start.
type TickerScheduler struct {
	interval  time.Duration
	immediate bool
	stop      chan struct{}
}

var _ ports.Scheduler = (*TickerScheduler)(nil)

// NewTickerScheduler builds a scheduler for the given interval.
func NewTickerScheduler(interval time.Duration, immediate bool) *TickerScheduler {
	return &TickerScheduler{interval: interval, immediate: immediate}
}

// Start begins ticking; a second Start without a Stop is a no-op.
func (s *TickerScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil || s.interval <= 0 {
		return nil
	}
	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	go func(stop chan struct{}) {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		if s.immediate {
			job(time.Now())
		}
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}(s.stop)

	return nil
}

// Stop halts the ticker goroutine.
func (s *TickerScheduler) Stop(context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
