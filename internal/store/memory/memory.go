// Package memory provides mutex-guarded in-memory implementations of the
// store interfaces. They back unit tests and local development, with the
// same semantics as the Postgres stores, including duplicate-snapshot
// detection.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/store"
)

// Store bundles one in-memory implementation of every store interface.
type Store struct {
	Beaches    *BeachStore
	Readings   *ReadingStore
	Advisories *AdvisoryStore
	Overrides  *OverrideStore
	Snapshots  *SnapshotStore
	Rules      *AlertRuleStore
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		Beaches:    &BeachStore{beaches: make(map[int64]domain.Beach)},
		Readings:   &ReadingStore{readings: make(map[int64][]domain.Reading), seen: make(map[string]struct{})},
		Advisories: &AdvisoryStore{advisories: make(map[string]domain.Advisory)},
		Overrides:  &OverrideStore{overrides: make(map[string]domain.ManualOverride)},
		Snapshots:  &SnapshotStore{snapshots: make(map[int64][]domain.StatusSnapshot)},
		Rules:      &AlertRuleStore{rules: make(map[string]domain.AlertRule), fired: make(map[firingKey]time.Time)},
	}
}

// DeleteBeach removes a beach and, mirroring the cascade semantics of the
// relational schema, every dependent record.
func (s *Store) DeleteBeach(id int64) {
	s.Beaches.delete(id)
	s.Readings.deleteBeach(id)
	s.Advisories.deleteBeach(id)
	s.Overrides.deleteBeach(id)
	s.Snapshots.deleteBeach(id)
	s.Rules.deleteBeach(id)
}

// BeachStore implements store.BeachStore.
type BeachStore struct {
	mu      sync.RWMutex
	beaches map[int64]domain.Beach
}

// Put inserts or replaces a beach definition.
func (s *BeachStore) Put(b domain.Beach) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beaches[b.ID] = b
}

func (s *BeachStore) delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.beaches, id)
}

func (s *BeachStore) ListActive(_ context.Context) ([]domain.Beach, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Beach
	for _, b := range s.beaches {
		if b.Active {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *BeachStore) Get(_ context.Context, id int64) (domain.Beach, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.beaches[id]
	if !ok {
		return domain.Beach{}, store.ErrNotFound
	}
	return b, nil
}

// ReadingStore implements store.ReadingStore.
type ReadingStore struct {
	mu       sync.RWMutex
	readings map[int64][]domain.Reading
	seen     map[string]struct{}
}

func readingKey(r domain.Reading) string {
	return fmt.Sprintf("%d|%d|%s", r.BeachID, r.Timestamp.UnixNano(), r.Source)
}

func (s *ReadingStore) RecordReading(_ context.Context, r domain.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := readingKey(r)
	if _, dup := s.seen[key]; dup {
		return nil
	}
	s.seen[key] = struct{}{}
	s.readings[r.BeachID] = append(s.readings[r.BeachID], r)
	return nil
}

func (s *ReadingStore) ListSince(_ context.Context, beachID int64, since time.Time) ([]domain.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Reading
	for _, r := range s.readings[beachID] {
		if !r.Timestamp.Before(since) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (s *ReadingStore) deleteBeach(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.readings, id)
}

// AdvisoryStore implements store.AdvisoryStore.
type AdvisoryStore struct {
	mu         sync.RWMutex
	advisories map[string]domain.Advisory
}

func (s *AdvisoryStore) Upsert(_ context.Context, a domain.Advisory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advisories[a.ID] = a
	return nil
}

func (s *AdvisoryStore) Resolve(_ context.Context, id string, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.advisories[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Status = domain.AdvisoryResolved
	a.ResolvedAt = &resolvedAt
	s.advisories[id] = a
	return nil
}

func (s *AdvisoryStore) ListActive(_ context.Context, beachID int64, at time.Time) ([]domain.Advisory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Advisory
	for _, a := range s.advisories {
		if a.BeachID == beachID && a.ActiveAt(at) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *AdvisoryStore) deleteBeach(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, a := range s.advisories {
		if a.BeachID == id {
			delete(s.advisories, key)
		}
	}
}

// OverrideStore implements store.OverrideStore.
type OverrideStore struct {
	mu        sync.RWMutex
	overrides map[string]domain.ManualOverride
}

func (s *OverrideStore) Create(_ context.Context, o domain.ManualOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[o.ID] = o
	return nil
}

func (s *OverrideStore) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.overrides[id]
	if !ok {
		return store.ErrNotFound
	}
	o.IsActive = false
	s.overrides[id] = o
	return nil
}

func (s *OverrideStore) ListInEffect(_ context.Context, beachID int64, at time.Time) ([]domain.ManualOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ManualOverride
	for _, o := range s.overrides {
		if o.BeachID == beachID && o.InEffectAt(at) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *OverrideStore) deleteBeach(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, o := range s.overrides {
		if o.BeachID == id {
			delete(s.overrides, key)
		}
	}
}

// SnapshotStore implements store.SnapshotStore.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[int64][]domain.StatusSnapshot
}

func (s *SnapshotStore) InsertIfAbsent(_ context.Context, snap domain.StatusSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.snapshots[snap.BeachID] {
		if existing.Timestamp.Equal(snap.Timestamp) {
			return store.ErrSnapshotExists
		}
	}
	s.snapshots[snap.BeachID] = append(s.snapshots[snap.BeachID], snap)
	return nil
}

func (s *SnapshotStore) Latest(_ context.Context, beachID int64) (domain.StatusSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.snapshots[beachID]
	if len(snaps) == 0 {
		return domain.StatusSnapshot{}, store.ErrNotFound
	}
	latest := snaps[0]
	for _, sn := range snaps[1:] {
		if sn.Timestamp.After(latest.Timestamp) {
			latest = sn
		}
	}
	return latest, nil
}

func (s *SnapshotStore) History(_ context.Context, beachID int64, from, to time.Time) ([]domain.StatusSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.StatusSnapshot
	for _, sn := range s.snapshots[beachID] {
		if !sn.Timestamp.Before(from) && !sn.Timestamp.After(to) {
			out = append(out, sn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// Count returns the number of stored snapshots for a beach.
func (s *SnapshotStore) Count(beachID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots[beachID])
}

func (s *SnapshotStore) deleteBeach(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, id)
}

// AlertRuleStore implements store.AlertRuleStore. Firing times are kept
// per (rule, beach) so a global rule's cooldown on one beach does not
// muzzle it on another.
type AlertRuleStore struct {
	mu    sync.RWMutex
	rules map[string]domain.AlertRule
	fired map[firingKey]time.Time
}

type firingKey struct {
	ruleID  string
	beachID int64
}

// Put inserts or replaces an alert rule definition.
func (s *AlertRuleStore) Put(r domain.AlertRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.ID] = r
}

func (s *AlertRuleStore) ListForBeach(_ context.Context, beachID int64) ([]domain.AlertRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.AlertRule
	for _, r := range s.rules {
		if r.BeachID == nil || *r.BeachID == beachID {
			if fired, ok := s.fired[firingKey{r.ID, beachID}]; ok {
				t := fired
				r.LastFiredAt = &t
			}
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *AlertRuleStore) UpdateLastFired(_ context.Context, ruleID string, beachID int64, firedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[ruleID]; !ok {
		return store.ErrNotFound
	}
	s.fired[firingKey{ruleID, beachID}] = firedAt
	return nil
}

func (s *AlertRuleStore) deleteBeach(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, r := range s.rules {
		if r.BeachID != nil && *r.BeachID == id {
			delete(s.rules, key)
		}
	}
	for key := range s.fired {
		if key.beachID == id {
			delete(s.fired, key)
		}
	}
}
