package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/observability"
)

// BeachLister enumerates the beaches a tick must cover.
type BeachLister interface {
	ListActive(ctx context.Context) ([]domain.Beach, error)
}

// Computer produces one status snapshot for a beach at a computation
// timestamp, returning the transition if the status changed.
type Computer interface {
	Compute(ctx context.Context, beach domain.Beach, at time.Time) (domain.StatusSnapshot, *domain.Transition, error)
}

// TransitionSink receives detected transitions for later alert checks.
type TransitionSink interface {
	Observe(t domain.Transition)
}

// TickReport is the outcome of one status tick. Partial completion is
// normal: failed beaches are retried on the next tick, and nothing
// already written is rolled back.
type TickReport struct {
	Beaches   int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// StatusJob fans one tick out over all active beaches with a bounded
// worker pool. A per-beach lock serializes overlapping ticks for the
// same beach; beaches never contend with each other.
type StatusJob struct {
	beaches  BeachLister
	computer Computer
	sink     TransitionSink
	clock    clockwork.Clock
	locks    *keyedMutex
	workers  int
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewStatusJob creates a StatusJob running at most workers computations
// concurrently.
func NewStatusJob(
	beaches BeachLister,
	computer Computer,
	sink TransitionSink,
	clock clockwork.Clock,
	workers int,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *StatusJob {
	if workers < 1 {
		workers = 1
	}
	return &StatusJob{
		beaches:  beaches,
		computer: computer,
		sink:     sink,
		clock:    clock,
		locks:    newKeyedMutex(),
		workers:  workers,
		logger:   logger,
		metrics:  metrics,
	}
}

func (j *StatusJob) Name() string { return "status" }

// Run computes the status of every active beach once. Per-beach failures
// are logged and counted, never fatal to the batch.
func (j *StatusJob) Run(ctx context.Context) error {
	report, err := j.RunTick(ctx)
	if err != nil {
		return err
	}
	j.logger.Info("status tick complete",
		"beaches", report.Beaches,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duration", report.Duration,
	)
	return nil
}

// RunTick is Run with the per-tick report exposed.
func (j *StatusJob) RunTick(ctx context.Context) (TickReport, error) {
	start := time.Now()

	// Truncating to the minute makes the computation timestamp stable
	// across a retried or overlapping tick, so re-runs dedupe on the
	// snapshot uniqueness key instead of writing near-duplicate rows.
	at := j.clock.Now().UTC().Truncate(time.Minute)

	beaches, err := j.beaches.ListActive(ctx)
	if err != nil {
		return TickReport{}, fmt.Errorf("list active beaches: %w", err)
	}

	var (
		mu        sync.Mutex
		succeeded int
		failed    int
	)
	sem := make(chan struct{}, j.workers)
	var wg sync.WaitGroup

	for _, beach := range beaches {
		if ctx.Err() != nil {
			// Tick deadline hit: abandon the unprocessed remainder. The
			// beaches already written stay written.
			mu.Lock()
			failed++
			mu.Unlock()
			j.metrics.BeachesFailed.Inc()
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(beach domain.Beach) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := j.computeOne(ctx, beach, at); err != nil {
				j.logger.Error("beach status computation failed",
					"beach_id", beach.ID, "beach", beach.Slug, "at", at, "error", err)
				j.metrics.BeachesFailed.Inc()
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			j.metrics.BeachesSucceeded.Inc()
			mu.Lock()
			succeeded++
			mu.Unlock()
		}(beach)
	}
	wg.Wait()

	return TickReport{
		Beaches:   len(beaches),
		Succeeded: succeeded,
		Failed:    failed,
		Duration:  time.Since(start),
	}, nil
}

// computeOne runs the compiler for a single beach under its lock,
// retrying transient storage failures with exponential backoff.
func (j *StatusJob) computeOne(ctx context.Context, beach domain.Beach, at time.Time) error {
	unlock := j.locks.Lock(beach.ID)
	defer unlock()

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)

	return backoff.Retry(func() error {
		_, transition, err := j.computer.Compute(ctx, beach, at)
		if err != nil {
			return err
		}
		if transition != nil {
			j.sink.Observe(*transition)
		}
		return nil
	}, policy)
}
