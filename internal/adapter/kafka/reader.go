package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/beach-status-engine/internal/config"
	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/observability"
	"github.com/couchcryptid/beach-status-engine/internal/scheduler"
)

// fetchWait bounds how long one FetchBatch call waits for the first
// message before reporting the topic drained.
const fetchWait = 2 * time.Second

// ReadingReader consumes environmental readings from the readings topic.
// It implements scheduler.ReadingSource.
type ReadingReader struct {
	reader  *kafkago.Reader
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewReadingReader creates a consumer-group reader for the configured
// readings topic.
func NewReadingReader(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *ReadingReader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaReadingsTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &ReadingReader{reader: r, logger: logger, metrics: metrics}
}

// FetchBatch fetches up to max readings. Messages that fail to decode
// are counted and skipped but still committed with the batch, so a
// poison message cannot wedge the partition. An empty batch means the
// topic is drained for now.
func (r *ReadingReader) FetchBatch(ctx context.Context, max int) (scheduler.Batch, error) {
	var (
		readings []domain.Reading
		msgs     []kafkago.Message
	)

	for len(msgs) < max {
		fetchCtx, cancel := context.WithTimeout(ctx, fetchWait)
		msg, err := r.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				break // drained
			}
			if ctx.Err() != nil {
				break
			}
			return scheduler.Batch{}, fmt.Errorf("fetch reading message: %w", err)
		}

		msgs = append(msgs, msg)
		reading, err := decodeReading(msg.Value)
		if err != nil {
			r.logger.Warn("undecodable reading message, skipping",
				"partition", msg.Partition, "offset", msg.Offset, "error", err)
			r.metrics.IngestErrors.Inc()
			continue
		}
		readings = append(readings, reading)
	}

	if len(msgs) == 0 {
		return scheduler.Batch{}, nil
	}
	return scheduler.Batch{
		Readings: readings,
		Commit: func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msgs...)
		},
	}, nil
}

func (r *ReadingReader) Close() error {
	return r.reader.Close()
}

// readingMessage is the wire form of one reading: flat JSON with one
// field per metric, absent fields meaning the station did not report
// that quantity.
type readingMessage struct {
	BeachID       int64     `json:"beach_id"`
	Timestamp     time.Time `json:"ts"`
	Source        string    `json:"source"`
	WaveHeightFt  *float64  `json:"wave_height_ft"`
	WavePeriodSec *float64  `json:"wave_period_sec"`
	WindMph       *float64  `json:"wind_mph"`
	WindDirDeg    *float64  `json:"wind_dir_deg"`
	WaterTempF    *float64  `json:"water_temp_f"`
	TideFt        *float64  `json:"tide_ft"`
}

func decodeReading(data []byte) (domain.Reading, error) {
	var msg readingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.Reading{}, fmt.Errorf("decode reading: %w", err)
	}
	if msg.BeachID <= 0 {
		return domain.Reading{}, fmt.Errorf("decode reading: missing beach_id")
	}
	if msg.Timestamp.IsZero() {
		return domain.Reading{}, fmt.Errorf("decode reading: missing ts")
	}
	if msg.Source == "" {
		return domain.Reading{}, fmt.Errorf("decode reading: missing source")
	}

	values := make(map[domain.Metric]float64)
	put := func(m domain.Metric, v *float64) {
		if v != nil {
			values[m] = *v
		}
	}
	put(domain.MetricWaveHeightFt, msg.WaveHeightFt)
	put(domain.MetricWavePeriodSec, msg.WavePeriodSec)
	put(domain.MetricWindMph, msg.WindMph)
	put(domain.MetricWindDirDeg, msg.WindDirDeg)
	put(domain.MetricWaterTempF, msg.WaterTempF)
	put(domain.MetricTideFt, msg.TideFt)
	if len(values) == 0 {
		return domain.Reading{}, fmt.Errorf("decode reading: no metric values")
	}

	return domain.Reading{
		BeachID:   msg.BeachID,
		Timestamp: msg.Timestamp.UTC(),
		Source:    msg.Source,
		Values:    values,
	}, nil
}
