package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/store"
)

func TestReadingStore_IdempotentRecord(t *testing.T) {
	s := New()
	ctx := context.Background()
	ts := time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC)

	r := domain.Reading{BeachID: 1, Timestamp: ts, Source: "noaa",
		Values: map[domain.Metric]float64{domain.MetricWaveHeightFt: 3.2}}

	require.NoError(t, s.Readings.RecordReading(ctx, r))
	require.NoError(t, s.Readings.RecordReading(ctx, r), "duplicate submission is absorbed")

	got, err := s.Readings.ListSince(ctx, 1, ts.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// Same timestamp, different source is a distinct reading.
	r.Source = "pacioos"
	require.NoError(t, s.Readings.RecordReading(ctx, r))
	got, err = s.Readings.ListSince(ctx, 1, ts.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSnapshotStore_InsertIfAbsent(t *testing.T) {
	s := New()
	ctx := context.Background()
	ts := time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC)

	snap := domain.StatusSnapshot{BeachID: 1, Timestamp: ts, Status: domain.StatusSafe}
	require.NoError(t, s.Snapshots.InsertIfAbsent(ctx, snap))

	dup := snap
	dup.Status = domain.StatusDangerous
	err := s.Snapshots.InsertIfAbsent(ctx, dup)
	require.ErrorIs(t, err, store.ErrSnapshotExists)

	latest, err := s.Snapshots.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSafe, latest.Status, "first writer wins")
	assert.Equal(t, 1, s.Snapshots.Count(1))
}

func TestSnapshotStore_LatestAndHistory(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC)

	for i, st := range []domain.Status{domain.StatusSafe, domain.StatusCaution, domain.StatusDangerous} {
		require.NoError(t, s.Snapshots.InsertIfAbsent(ctx, domain.StatusSnapshot{
			BeachID: 1, Timestamp: base.Add(time.Duration(i) * time.Hour), Status: st,
		}))
	}

	latest, err := s.Snapshots.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDangerous, latest.Status)

	hist, err := s.Snapshots.History(ctx, 1, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, domain.StatusCaution, hist[0].Status, "history is newest first")

	_, err = s.Snapshots.Latest(ctx, 99)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAdvisoryStore_ResolveEndsActivity(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC)

	a := domain.Advisory{ID: "a1", BeachID: 1, Source: "doh", Status: domain.AdvisoryActive,
		Severity: domain.SeverityWarning, Title: "bacteria advisory", StartedAt: now.Add(-time.Hour)}
	require.NoError(t, s.Advisories.Upsert(ctx, a))

	active, err := s.Advisories.ListActive(ctx, 1, now)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, s.Advisories.Resolve(ctx, "a1", now))
	active, err = s.Advisories.ListActive(ctx, 1, now)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, s.Advisories.Resolve(ctx, "missing", now), store.ErrNotFound)
}

func TestOverrideStore_DeactivateAndWindow(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC)

	o := domain.ManualOverride{ID: "o1", BeachID: 1, Type: domain.OverrideClosure,
		Value: "shark sighting", StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour), IsActive: true}
	require.NoError(t, s.Overrides.Create(ctx, o))

	inEffect, err := s.Overrides.ListInEffect(ctx, 1, now)
	require.NoError(t, err)
	assert.Len(t, inEffect, 1)

	require.NoError(t, s.Overrides.Deactivate(ctx, "o1"))
	inEffect, err = s.Overrides.ListInEffect(ctx, 1, now)
	require.NoError(t, err)
	assert.Empty(t, inEffect)
}

func TestAlertRuleStore_GlobalRulesIncluded(t *testing.T) {
	s := New()
	ctx := context.Background()
	beachID := int64(1)

	s.Rules.Put(domain.AlertRule{ID: "bound", BeachID: &beachID,
		Trigger: domain.AlertTrigger{Kind: domain.TriggerBecomes, To: domain.StatusDangerous}})
	s.Rules.Put(domain.AlertRule{ID: "global",
		Trigger: domain.AlertTrigger{Kind: domain.TriggerAnyChange}})
	other := int64(2)
	s.Rules.Put(domain.AlertRule{ID: "other-beach", BeachID: &other,
		Trigger: domain.AlertTrigger{Kind: domain.TriggerAnyChange}})

	rules, err := s.Rules.ListForBeach(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "bound", rules[0].ID)
	assert.Equal(t, "global", rules[1].ID)

	fired := time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Rules.UpdateLastFired(ctx, "global", 1, fired))
	rules, err = s.Rules.ListForBeach(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, rules[1].LastFiredAt)
	assert.Equal(t, fired, *rules[1].LastFiredAt)

	// Firing state is scoped to the beach it fired on.
	rules, err = s.Rules.ListForBeach(ctx, 2)
	require.NoError(t, err)
	for _, r := range rules {
		assert.Nil(t, r.LastFiredAt, "rule %s", r.ID)
	}
}

func TestDeleteBeachCascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC)
	beachID := int64(1)

	s.Beaches.Put(domain.Beach{ID: beachID, Name: "Waimea Bay", Active: true})
	require.NoError(t, s.Readings.RecordReading(ctx, domain.Reading{BeachID: beachID, Timestamp: now, Source: "noaa"}))
	require.NoError(t, s.Advisories.Upsert(ctx, domain.Advisory{ID: "a1", BeachID: beachID, Status: domain.AdvisoryActive, StartedAt: now.Add(-time.Hour)}))
	require.NoError(t, s.Overrides.Create(ctx, domain.ManualOverride{ID: "o1", BeachID: beachID, IsActive: true, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)}))
	require.NoError(t, s.Snapshots.InsertIfAbsent(ctx, domain.StatusSnapshot{BeachID: beachID, Timestamp: now}))
	s.Rules.Put(domain.AlertRule{ID: "r1", BeachID: &beachID})

	s.DeleteBeach(beachID)

	_, err := s.Beaches.Get(ctx, beachID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	readings, _ := s.Readings.ListSince(ctx, beachID, now.Add(-time.Hour))
	assert.Empty(t, readings)
	advisories, _ := s.Advisories.ListActive(ctx, beachID, now)
	assert.Empty(t, advisories)
	overrides, _ := s.Overrides.ListInEffect(ctx, beachID, now)
	assert.Empty(t, overrides)
	_, err = s.Snapshots.Latest(ctx, beachID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	rules, _ := s.Rules.ListForBeach(ctx, beachID)
	assert.Empty(t, rules)
}
