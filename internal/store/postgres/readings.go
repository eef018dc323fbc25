package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
)

// ReadingRepository implements store.ReadingStore. The readings table has
// one nullable column per metric; the sparse Values map round-trips
// through them.
type ReadingRepository struct {
	db *sqlx.DB
}

type readingRow struct {
	BeachID     int64           `db:"beach_id"`
	TS          time.Time       `db:"ts"`
	Source      string          `db:"source"`
	WaveHeight  sql.NullFloat64 `db:"wave_height_ft"`
	WavePeriod  sql.NullFloat64 `db:"wave_period_sec"`
	WindMph     sql.NullFloat64 `db:"wind_mph"`
	WindDirDeg  sql.NullFloat64 `db:"wind_dir_deg"`
	WaterTempF  sql.NullFloat64 `db:"water_temp_f"`
	TideFt      sql.NullFloat64 `db:"tide_ft"`
}

// metricColumns pairs each metric with its row field accessor, keeping
// the sparse-map conversion in one place.
func (r readingRow) toDomain() domain.Reading {
	values := make(map[domain.Metric]float64)
	for metric, col := range map[domain.Metric]sql.NullFloat64{
		domain.MetricWaveHeightFt:  r.WaveHeight,
		domain.MetricWavePeriodSec: r.WavePeriod,
		domain.MetricWindMph:       r.WindMph,
		domain.MetricWindDirDeg:    r.WindDirDeg,
		domain.MetricWaterTempF:    r.WaterTempF,
		domain.MetricTideFt:        r.TideFt,
	} {
		if col.Valid {
			values[metric] = col.Float64
		}
	}
	if len(values) == 0 {
		values = nil
	}
	return domain.Reading{BeachID: r.BeachID, Timestamp: r.TS, Source: r.Source, Values: values}
}

func fromDomain(reading domain.Reading) readingRow {
	row := readingRow{BeachID: reading.BeachID, TS: reading.Timestamp, Source: reading.Source}
	set := func(col *sql.NullFloat64, metric domain.Metric) {
		if v, ok := reading.Values[metric]; ok {
			*col = sql.NullFloat64{Float64: v, Valid: true}
		}
	}
	set(&row.WaveHeight, domain.MetricWaveHeightFt)
	set(&row.WavePeriod, domain.MetricWavePeriodSec)
	set(&row.WindMph, domain.MetricWindMph)
	set(&row.WindDirDeg, domain.MetricWindDirDeg)
	set(&row.WaterTempF, domain.MetricWaterTempF)
	set(&row.TideFt, domain.MetricTideFt)
	return row
}

// RecordReading appends a reading. ON CONFLICT DO NOTHING on the
// (beach_id, ts, source) key makes duplicate submissions a silent no-op.
func (r *ReadingRepository) RecordReading(ctx context.Context, reading domain.Reading) error {
	query := `
		INSERT INTO readings (
			beach_id, ts, source,
			wave_height_ft, wave_period_sec, wind_mph,
			wind_dir_deg, water_temp_f, tide_ft
		) VALUES (
			:beach_id, :ts, :source,
			:wave_height_ft, :wave_period_sec, :wind_mph,
			:wind_dir_deg, :water_temp_f, :tide_ft
		)
		ON CONFLICT ON CONSTRAINT readings_dedupe DO NOTHING`

	if _, err := r.db.NamedExecContext(ctx, query, fromDomain(reading)); err != nil {
		return fmt.Errorf("record reading beach=%d source=%s: %w", reading.BeachID, reading.Source, err)
	}
	return nil
}

func (r *ReadingRepository) ListSince(ctx context.Context, beachID int64, since time.Time) ([]domain.Reading, error) {
	var rows []readingRow
	query := `
		SELECT beach_id, ts, source,
		       wave_height_ft, wave_period_sec, wind_mph,
		       wind_dir_deg, water_temp_f, tide_ft
		FROM readings
		WHERE beach_id = $1 AND ts >= $2
		ORDER BY ts DESC`

	if err := r.db.SelectContext(ctx, &rows, query, beachID, since); err != nil {
		return nil, fmt.Errorf("list readings beach=%d: %w", beachID, err)
	}

	readings := make([]domain.Reading, len(rows))
	for i, row := range rows {
		readings[i] = row.toDomain()
	}
	return readings, nil
}
