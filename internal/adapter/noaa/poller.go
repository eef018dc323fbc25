package noaa

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/scheduler"
	"github.com/couchcryptid/beach-status-engine/internal/store"
)

// ObservationFetcher fetches the latest observations for one station.
type ObservationFetcher interface {
	LatestObservations(ctx context.Context, stationID string) (Observation, error)
}

// Poller turns station observations into beach readings. It implements
// scheduler.ReadingSource: one poll sweep per ingest tick, covering
// every active beach with a station mapping. Stations shared by several
// beaches are fetched once per sweep.
type Poller struct {
	client  ObservationFetcher
	beaches store.BeachStore
	clock   clockwork.Clock
	logger  *slog.Logger

	// minInterval suppresses re-polls inside one ingest tick: the drain
	// loop keeps fetching until it sees an empty batch, and a fresh sweep
	// would hammer the API with identical requests.
	minInterval time.Duration

	mu       sync.Mutex
	lastPoll time.Time
}

// NewPoller creates a Poller that sweeps at most once per minInterval.
func NewPoller(client ObservationFetcher, beaches store.BeachStore, clock clockwork.Clock, minInterval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		client:      client,
		beaches:     beaches,
		clock:       clock,
		minInterval: minInterval,
		logger:      logger,
	}
}

// FetchBatch polls every mapped station once and returns the resulting
// readings. Calls within minInterval of the previous sweep return an
// empty batch. Per-station failures are logged and skipped; the sweep
// itself only fails when the beach list cannot be loaded.
func (p *Poller) FetchBatch(ctx context.Context, _ int) (scheduler.Batch, error) {
	p.mu.Lock()
	now := p.clock.Now()
	if !p.lastPoll.IsZero() && now.Sub(p.lastPoll) < p.minInterval {
		p.mu.Unlock()
		return scheduler.Batch{}, nil
	}
	p.lastPoll = now
	p.mu.Unlock()

	beaches, err := p.beaches.ListActive(ctx)
	if err != nil {
		return scheduler.Batch{}, err
	}

	observations := make(map[string]*Observation)
	var readings []domain.Reading
	for _, beach := range beaches {
		if beach.StationID == "" {
			continue
		}

		obs, seen := observations[beach.StationID]
		if !seen {
			fetched, err := p.client.LatestObservations(ctx, beach.StationID)
			if err != nil {
				p.logger.Warn("station poll failed", "station", beach.StationID, "error", err)
				observations[beach.StationID] = nil
				continue
			}
			obs = &fetched
			observations[beach.StationID] = obs
		}
		if obs == nil {
			continue // station already failed this sweep
		}

		readings = append(readings, domain.Reading{
			BeachID:   beach.ID,
			Timestamp: obs.ObservedAt,
			Source:    "noaa",
			Values:    obs.Values,
		})
	}

	return scheduler.Batch{Readings: readings}, nil
}
