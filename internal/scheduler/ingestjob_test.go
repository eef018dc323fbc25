package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/observability"
	"github.com/couchcryptid/beach-status-engine/internal/store/memory"
)

type stubSource struct {
	batches   []Batch
	committed int
	fetchErr  error
}

func (s *stubSource) FetchBatch(_ context.Context, _ int) (Batch, error) {
	if s.fetchErr != nil {
		return Batch{}, s.fetchErr
	}
	if len(s.batches) == 0 {
		return Batch{}, nil
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

func waveReading(beachID int64, ts time.Time, ft float64) domain.Reading {
	return domain.Reading{
		BeachID:   beachID,
		Timestamp: ts,
		Source:    "noaa",
		Values:    map[domain.Metric]float64{domain.MetricWaveHeightFt: ft},
	}
}

func TestIngestJob_DrainsSourceAndCommits(t *testing.T) {
	now := time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC)
	s := memory.New()
	source := &stubSource{}
	source.batches = []Batch{
		{
			Readings: []domain.Reading{waveReading(1, now, 2.5), waveReading(2, now, 4.0)},
			Commit:   func(context.Context) error { source.committed++; return nil },
		},
		{
			Readings: []domain.Reading{waveReading(1, now.Add(time.Minute), 2.7)},
			Commit:   func(context.Context) error { source.committed++; return nil },
		},
	}
	job := NewIngestJob(source, s.Readings, 100, testLogger(), observability.NewMetricsForTesting())

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 2, source.committed)
	stored, err := s.Readings.ListSince(context.Background(), 1, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestIngestJob_RecordFailureDropsReadingOnly(t *testing.T) {
	now := time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC)
	store := &flakyReadingStore{failOn: 2}
	source := &stubSource{}
	source.batches = []Batch{{
		Readings: []domain.Reading{waveReading(1, now, 1.0), waveReading(2, now, 1.0), waveReading(3, now, 1.0)},
		Commit:   func(context.Context) error { source.committed++; return nil },
	}}
	job := NewIngestJob(source, store, 100, testLogger(), observability.NewMetricsForTesting())

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, []int64{1, 3}, store.recorded, "the bad reading is skipped, not the batch")
	assert.Equal(t, 1, source.committed)
}

func TestIngestJob_FetchErrorIsFatal(t *testing.T) {
	source := &stubSource{fetchErr: errors.New("broker unreachable")}
	job := NewIngestJob(source, memory.New().Readings, 100, testLogger(), observability.NewMetricsForTesting())

	err := job.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch readings")
}

// flakyReadingStore fails RecordReading for one specific beach.
type flakyReadingStore struct {
	failOn   int64
	recorded []int64
}

func (s *flakyReadingStore) RecordReading(_ context.Context, r domain.Reading) error {
	if r.BeachID == s.failOn {
		return errors.New("constraint violation")
	}
	s.recorded = append(s.recorded, r.BeachID)
	return nil
}

func (s *flakyReadingStore) ListSince(_ context.Context, _ int64, _ time.Time) ([]domain.Reading, error) {
	return nil, nil
}
