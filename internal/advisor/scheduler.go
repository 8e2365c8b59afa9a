package advisor

import (
	"context"
	"log"
	"time"
)

// Scheduler runs the advisory pipeline on a fixed interval, decoupled
// from the session-tracking path. Each run has a bounded timeout, and
// a new tick cancels any run still in flight, so a stale run can never
// overwrite its successor's result.
type Scheduler struct {
	pipeline *Pipeline
	interval time.Duration
	timeout  time.Duration

	// First run fires after this delay rather than a full interval.
	initialDelay time.Duration
}

// NewScheduler creates a Scheduler for the given cadence.
func NewScheduler(pipeline *Pipeline, interval, timeout time.Duration) *Scheduler {
	return &Scheduler{
		pipeline:     pipeline,
		interval:     interval,
		timeout:      timeout,
		initialDelay: 30 * time.Second,
	}
}

// Run blocks until ctx is canceled, firing the pipeline on schedule.
// Runs execute on their own goroutine; Run never blocks on a slow
// generation call.
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()

	cancelPrev := func() {}
	defer func() { cancelPrev() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			cancelPrev()
			runCtx, cancel := context.WithTimeout(ctx, s.timeout)
			cancelPrev = cancel
			go func() {
				defer cancel()
				if err := s.pipeline.Run(runCtx); err != nil && runCtx.Err() == nil {
					log.Printf("advisor: scheduled run failed: %v", err)
				}
			}()
			timer.Reset(s.interval)
		}
	}
}
