// Package engine contains the status compiler: the component that runs
// the layered determination pipeline for one beach, persists the
// immutable snapshot, and detects status transitions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/observability"
	"github.com/couchcryptid/beach-status-engine/internal/store"
)

// StatusCache receives write-through copies of the latest snapshot. A nil
// cache disables write-through.
type StatusCache interface {
	SetLatest(ctx context.Context, snap domain.StatusSnapshot) error
}

// Compiler computes and persists one beach's status at one instant.
type Compiler struct {
	readings   store.ReadingStore
	advisories store.AdvisoryStore
	overrides  store.OverrideStore
	snapshots  store.SnapshotStore
	cache      StatusCache

	staleness  time.Duration
	precedence domain.SourcePrecedence

	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCompiler wires the compiler to its stores. Pass a nil cache to
// disable latest-status write-through.
func NewCompiler(
	readings store.ReadingStore,
	advisories store.AdvisoryStore,
	overrides store.OverrideStore,
	snapshots store.SnapshotStore,
	cache StatusCache,
	staleness time.Duration,
	precedence domain.SourcePrecedence,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Compiler {
	return &Compiler{
		readings:   readings,
		advisories: advisories,
		overrides:  overrides,
		snapshots:  snapshots,
		cache:      cache,
		staleness:  staleness,
		precedence: precedence,
		logger:     logger,
		metrics:    metrics,
	}
}

// Compute runs the full determination pipeline for one beach at the given
// computation instant and persists the resulting snapshot.
//
// The write is insert-if-absent on (beach, timestamp): recomputing the
// same instant, or losing a race against another worker, is a silent
// no-op that returns no transition, so downstream alerting can never see
// the same change twice. A transition is returned when the new status
// differs from the latest prior snapshot; a beach with no history
// transitions from unknown.
func (c *Compiler) Compute(ctx context.Context, beach domain.Beach, at time.Time) (domain.StatusSnapshot, *domain.Transition, error) {
	readings, err := c.readings.ListSince(ctx, beach.ID, at.Add(-c.staleness))
	if err != nil {
		return domain.StatusSnapshot{}, nil, fmt.Errorf("load readings: %w", err)
	}
	cond := domain.AggregateReadings(readings, at, c.staleness, c.precedence)

	d := domain.EvaluateThresholds(cond, beach.EffectiveThresholds())

	advisories, err := c.advisories.ListActive(ctx, beach.ID, at)
	if err != nil {
		return domain.StatusSnapshot{}, nil, fmt.Errorf("load advisories: %w", err)
	}
	d = domain.ApplyAdvisories(d, advisories)

	overrides, err := c.overrides.ListInEffect(ctx, beach.ID, at)
	if err != nil {
		return domain.StatusSnapshot{}, nil, fmt.Errorf("load overrides: %w", err)
	}
	d = domain.ApplyOverrides(d, overrides)

	snap := buildSnapshot(beach.ID, at, d, cond)

	prior, err := c.snapshots.Latest(ctx, beach.ID)
	hasPrior := true
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return domain.StatusSnapshot{}, nil, fmt.Errorf("load prior snapshot: %w", err)
		}
		hasPrior = false
	}

	if err := c.snapshots.InsertIfAbsent(ctx, snap); err != nil {
		if errors.Is(err, store.ErrSnapshotExists) {
			// First writer won; this computation is a duplicate. Discard
			// quietly so the tick neither errors nor re-emits a transition.
			c.metrics.SnapshotConflicts.Inc()
			c.logger.Debug("snapshot already exists", "beach_id", beach.ID, "ts", at)
			return snap, nil, nil
		}
		return domain.StatusSnapshot{}, nil, fmt.Errorf("persist snapshot: %w", err)
	}

	c.metrics.SnapshotsWritten.Inc()
	c.metrics.StatusComputed.WithLabelValues(string(snap.Status)).Inc()
	c.logger.Debug("status computed",
		"beach_id", beach.ID,
		"status", snap.Status,
		"has_advisory", snap.HasAdvisory,
		"ts", at,
	)

	if c.cache != nil {
		if err := c.cache.SetLatest(ctx, snap); err != nil {
			c.logger.Warn("latest-status cache update failed", "beach_id", beach.ID, "error", err)
		}
	}

	from := domain.StatusUnknown
	if hasPrior {
		from = prior.Status
	}
	if from == snap.Status {
		return snap, nil, nil
	}

	c.metrics.Transitions.Inc()
	return snap, &domain.Transition{
		BeachID: beach.ID,
		From:    from,
		To:      snap.Status,
		At:      at,
		Reason:  snap.Reason,
	}, nil
}

// buildSnapshot assembles the immutable record: the final determination
// plus the headline measurements it was based on.
func buildSnapshot(beachID int64, at time.Time, d domain.Determination, cond domain.Conditions) domain.StatusSnapshot {
	snap := domain.StatusSnapshot{
		BeachID:     beachID,
		Timestamp:   at,
		Status:      d.Status,
		HasAdvisory: d.HasAdvisory,
		Reason:      d.Reason,
	}
	if obs, ok := cond.Get(domain.MetricWaveHeightFt); ok {
		v := obs.Value
		snap.WaveHeightFt = &v
	}
	if obs, ok := cond.Get(domain.MetricWindMph); ok {
		v := obs.Value
		snap.WindMph = &v
	}
	return snap
}
