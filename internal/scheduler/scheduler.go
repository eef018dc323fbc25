// Package scheduler drives the periodic work of the engine: reading
// ingestion, per-beach status computation, and alert checks, each on its
// own independently configured interval.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/beach-status-engine/internal/observability"
)

// Job is one periodically scheduled unit of work. Run covers a single
// tick and must respect ctx cancellation; the scheduler applies the tick
// deadline before calling it.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs registered jobs on their intervals until the context is
// cancelled. Each job gets its own ticker goroutine, so a slow status
// tick never delays an alert check.
type Scheduler struct {
	clock       clockwork.Clock
	tickTimeout time.Duration
	logger      *slog.Logger
	metrics     *observability.Metrics

	entries []entry
	ready   atomic.Bool
}

type entry struct {
	job      Job
	interval time.Duration
}

// New creates a Scheduler. tickTimeout bounds each tick; zero disables
// the deadline.
func New(clock clockwork.Clock, tickTimeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		clock:       clock,
		tickTimeout: tickTimeout,
		logger:      logger,
		metrics:     metrics,
	}
}

// Add registers a job to run on the given interval. Must be called before
// Run.
func (s *Scheduler) Add(job Job, interval time.Duration) {
	s.entries = append(s.entries, entry{job: job, interval: interval})
}

// CheckReadiness returns nil once the scheduler has completed at least
// one tick of every job.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("scheduler has not completed a full round of ticks yet")
	}
	return nil
}

// Run executes all registered jobs until the context is cancelled. Every
// job runs once immediately at startup, then on its interval.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "jobs", len(s.entries))
	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	var wg sync.WaitGroup
	var firstRound sync.WaitGroup
	firstRound.Add(len(s.entries))

	for _, e := range s.entries {
		wg.Add(1)
		go func(e entry) {
			defer wg.Done()
			s.runTick(ctx, e)
			firstRound.Done()
			s.loop(ctx, e)
		}(e)
	}

	go func() {
		firstRound.Wait()
		s.ready.Store(true)
	}()

	wg.Wait()
	s.logger.Info("scheduler stopped", "reason", ctx.Err())
	return nil
}

func (s *Scheduler) loop(ctx context.Context, e entry) {
	ticker := s.clock.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.runTick(ctx, e)
		}
	}
}

func (s *Scheduler) runTick(ctx context.Context, e entry) {
	if ctx.Err() != nil {
		return
	}

	tickCtx := ctx
	if s.tickTimeout > 0 {
		var cancel context.CancelFunc
		tickCtx, cancel = context.WithTimeout(ctx, s.tickTimeout)
		defer cancel()
	}

	start := time.Now()
	s.metrics.TicksTotal.WithLabelValues(e.job.Name()).Inc()

	if err := e.job.Run(tickCtx); err != nil && ctx.Err() == nil {
		s.logger.Error("tick failed", "job", e.job.Name(), "error", err)
	}

	s.metrics.TickDuration.WithLabelValues(e.job.Name()).Observe(time.Since(start).Seconds())
}
