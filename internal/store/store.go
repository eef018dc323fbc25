// Package store defines the narrow storage interfaces the status engine
// depends on, with sentinel errors shared by all implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
)

var (
	// ErrSnapshotExists reports a duplicate snapshot at the same
	// (beach, timestamp) key. First writer wins; callers treat this as a
	// benign no-op, not a failure.
	ErrSnapshotExists = errors.New("snapshot already exists for beach and timestamp")

	// ErrNotFound reports the absence of a requested record.
	ErrNotFound = errors.New("record not found")
)

// BeachStore reads beach configuration. Beaches are owned by the admin
// flow; the engine never writes them.
type BeachStore interface {
	ListActive(ctx context.Context) ([]domain.Beach, error)
	Get(ctx context.Context, id int64) (domain.Beach, error)
}

// ReadingStore appends and queries raw measurements. RecordReading is
// idempotent on (beach, timestamp, source): a duplicate submission is
// silently absorbed.
type ReadingStore interface {
	RecordReading(ctx context.Context, r domain.Reading) error
	ListSince(ctx context.Context, beachID int64, since time.Time) ([]domain.Reading, error)
}

// AdvisoryStore manages official advisory records.
type AdvisoryStore interface {
	Upsert(ctx context.Context, a domain.Advisory) error
	Resolve(ctx context.Context, id string, resolvedAt time.Time) error
	// ListActive returns the advisories affecting computation at the given
	// instant, per domain.Advisory.ActiveAt.
	ListActive(ctx context.Context, beachID int64, at time.Time) ([]domain.Advisory, error)
}

// OverrideStore manages administrative overrides.
type OverrideStore interface {
	Create(ctx context.Context, o domain.ManualOverride) error
	Deactivate(ctx context.Context, id string) error
	// ListInEffect returns the overrides in effect at the given instant,
	// per domain.ManualOverride.InEffectAt.
	ListInEffect(ctx context.Context, beachID int64, at time.Time) ([]domain.ManualOverride, error)
}

// SnapshotStore persists the immutable status history.
type SnapshotStore interface {
	// InsertIfAbsent writes the snapshot unless one already exists for its
	// (beach, timestamp) key, in which case it returns ErrSnapshotExists
	// without touching the stored row. The conditional write is what keeps
	// recomputation and worker races idempotent.
	InsertIfAbsent(ctx context.Context, s domain.StatusSnapshot) error
	// Latest returns the most recent snapshot for a beach, or ErrNotFound.
	Latest(ctx context.Context, beachID int64) (domain.StatusSnapshot, error)
	// History returns snapshots with from <= ts <= to, newest first.
	History(ctx context.Context, beachID int64, from, to time.Time) ([]domain.StatusSnapshot, error)
}

// AlertRuleStore reads rule definitions and owns the last-fired
// bookkeeping. Firing state is tracked per (rule, beach): a global rule
// keeps an independent cooldown clock for every beach it fires on.
type AlertRuleStore interface {
	// ListForBeach returns the rules bound to the beach plus all global
	// rules, with LastFiredAt resolved for that beach.
	ListForBeach(ctx context.Context, beachID int64) ([]domain.AlertRule, error)
	UpdateLastFired(ctx context.Context, ruleID string, beachID int64, firedAt time.Time) error
}
