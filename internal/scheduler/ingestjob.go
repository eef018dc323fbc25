package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/observability"
	"github.com/couchcryptid/beach-status-engine/internal/store"
)

// Batch is one fetch from a reading source. Commit acknowledges the batch
// after it has been durably recorded; nil when the source needs no
// acknowledgement.
type Batch struct {
	Readings []domain.Reading
	Commit   func(ctx context.Context) error
}

// ReadingSource supplies batches of environmental readings. An empty
// batch means the source is drained for now.
type ReadingSource interface {
	FetchBatch(ctx context.Context, max int) (Batch, error)
}

// IngestJob drains the reading source into storage on each ingest tick.
// Recording is idempotent on (beach, timestamp, source), so a batch that
// was recorded but not committed is safely re-consumed.
type IngestJob struct {
	source    ReadingSource
	readings  store.ReadingStore
	batchSize int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewIngestJob creates an IngestJob fetching up to batchSize readings at
// a time.
func NewIngestJob(source ReadingSource, readings store.ReadingStore, batchSize int, logger *slog.Logger, metrics *observability.Metrics) *IngestJob {
	return &IngestJob{
		source:    source,
		readings:  readings,
		batchSize: batchSize,
		logger:    logger,
		metrics:   metrics,
	}
}

func (j *IngestJob) Name() string { return "ingest" }

// Run fetches and records batches until the source is drained or the
// tick deadline hits. A reading that fails to record is dropped and
// counted; the rest of its batch still commits.
func (j *IngestJob) Run(ctx context.Context) error {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := j.source.FetchBatch(ctx, j.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("fetch readings: %w", err)
		}
		if len(batch.Readings) == 0 {
			break
		}

		for _, reading := range batch.Readings {
			if err := j.readings.RecordReading(ctx, reading); err != nil {
				j.logger.Warn("record reading failed, dropping",
					"beach_id", reading.BeachID, "source", reading.Source, "ts", reading.Timestamp, "error", err)
				j.metrics.IngestErrors.Inc()
				continue
			}
			j.metrics.ReadingsIngested.Inc()
			total++
		}

		if batch.Commit != nil {
			if err := batch.Commit(ctx); err != nil {
				return fmt.Errorf("commit reading batch: %w", err)
			}
		}
	}

	if total > 0 {
		j.logger.Info("ingest tick complete", "readings", total)
	}
	return nil
}
