package noaa

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/store/memory"
)

type stubFetcher struct {
	observations map[string]Observation
	calls        map[string]int
}

func (f *stubFetcher) LatestObservations(_ context.Context, stationID string) (Observation, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[stationID]++
	obs, ok := f.observations[stationID]
	if !ok {
		return Observation{}, errors.New("station offline")
	}
	return obs, nil
}

func newPollerFixture(t *testing.T) (*Poller, *stubFetcher, *clockwork.FakeClock) {
	t.Helper()
	now := time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC)
	s := memory.New()
	s.Beaches.Put(domain.Beach{ID: 1, Slug: "waimea-bay", StationID: "1612340", Active: true})
	s.Beaches.Put(domain.Beach{ID: 2, Slug: "ala-moana", StationID: "1612340", Active: true})
	s.Beaches.Put(domain.Beach{ID: 3, Slug: "hanalei-bay", StationID: "1611400", Active: true})
	s.Beaches.Put(domain.Beach{ID: 4, Slug: "unmapped", Active: true})

	fetcher := &stubFetcher{observations: map[string]Observation{
		"1612340": {
			StationID:  "1612340",
			ObservedAt: now.Add(-5 * time.Minute),
			Values:     map[domain.Metric]float64{domain.MetricTideFt: 1.2, domain.MetricWindMph: 9.0},
		},
	}}
	clock := clockwork.NewFakeClockAt(now)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPoller(fetcher, s.Beaches, clock, 10*time.Minute, logger), fetcher, clock
}

func TestPoller_SweepsMappedBeaches(t *testing.T) {
	poller, fetcher, _ := newPollerFixture(t)

	batch, err := poller.FetchBatch(context.Background(), 100)
	require.NoError(t, err)

	// Beaches 1 and 2 share a healthy station; 3's station is offline;
	// 4 has no station at all.
	require.Len(t, batch.Readings, 2)
	assert.Equal(t, int64(1), batch.Readings[0].BeachID)
	assert.Equal(t, int64(2), batch.Readings[1].BeachID)
	assert.Equal(t, "noaa", batch.Readings[0].Source)
	assert.Equal(t, 1.2, batch.Readings[0].Values[domain.MetricTideFt])

	assert.Equal(t, 1, fetcher.calls["1612340"], "shared stations are fetched once per sweep")
	assert.Equal(t, 1, fetcher.calls["1611400"])
	assert.Nil(t, batch.Commit, "polling needs no acknowledgement")
}

func TestPoller_OneSweepPerInterval(t *testing.T) {
	poller, fetcher, clock := newPollerFixture(t)
	ctx := context.Background()

	batch, err := poller.FetchBatch(ctx, 100)
	require.NoError(t, err)
	assert.NotEmpty(t, batch.Readings)

	// The drain loop's immediate follow-up call sees an empty batch.
	batch, err = poller.FetchBatch(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, batch.Readings)
	assert.Equal(t, 1, fetcher.calls["1612340"])

	// The next tick is past the interval and sweeps again.
	clock.Advance(30 * time.Minute)
	batch, err = poller.FetchBatch(ctx, 100)
	require.NoError(t, err)
	assert.NotEmpty(t, batch.Readings)
	assert.Equal(t, 2, fetcher.calls["1612340"])
}
