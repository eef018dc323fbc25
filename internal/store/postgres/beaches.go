package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/store"
)

// BeachRepository implements store.BeachStore.
type BeachRepository struct {
	db *sqlx.DB
}

type beachRow struct {
	ID          int64   `db:"id"`
	Name        string  `db:"name"`
	Slug        string  `db:"slug"`
	Lat         float64 `db:"lat"`
	Lng         float64 `db:"lng"`
	StationID   string  `db:"station_id"`
	WaveSafe    float64 `db:"wave_threshold_safe"`
	WaveCaution float64 `db:"wave_threshold_caution"`
	WindSafe    float64 `db:"wind_threshold_safe"`
	WindCaution float64 `db:"wind_threshold_caution"`
	IsActive    bool    `db:"is_active"`
}

func (r beachRow) toDomain() domain.Beach {
	return domain.Beach{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		Lat:       r.Lat,
		Lng:       r.Lng,
		StationID: r.StationID,
		Thresholds: domain.Thresholds{
			WaveSafeMax:    r.WaveSafe,
			WaveCautionMax: r.WaveCaution,
			WindSafeMax:    r.WindSafe,
			WindCautionMax: r.WindCaution,
		},
		Active: r.IsActive,
	}
}

const beachColumns = `id, name, slug, lat, lng, station_id,
	wave_threshold_safe, wave_threshold_caution,
	wind_threshold_safe, wind_threshold_caution, is_active`

func (r *BeachRepository) ListActive(ctx context.Context) ([]domain.Beach, error) {
	var rows []beachRow
	query := `SELECT ` + beachColumns + ` FROM beaches WHERE is_active ORDER BY id`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list active beaches: %w", err)
	}

	beaches := make([]domain.Beach, len(rows))
	for i, row := range rows {
		beaches[i] = row.toDomain()
	}
	return beaches, nil
}

func (r *BeachRepository) Get(ctx context.Context, id int64) (domain.Beach, error) {
	var row beachRow
	query := `SELECT ` + beachColumns + ` FROM beaches WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Beach{}, store.ErrNotFound
		}
		return domain.Beach{}, fmt.Errorf("get beach %d: %w", id, err)
	}
	return row.toDomain(), nil
}
