package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/store"
)

// SnapshotRepository implements store.SnapshotStore. The UNIQUE
// (beach_id, ts) constraint is the concurrency safety net: two workers
// racing to write the same computation commit at most one row, and the
// loser sees ErrSnapshotExists.
type SnapshotRepository struct {
	db *sqlx.DB
}

type snapshotRow struct {
	BeachID      int64           `db:"beach_id"`
	TS           time.Time       `db:"ts"`
	Status       string          `db:"status"`
	WaveHeightFt sql.NullFloat64 `db:"wave_height_ft"`
	WindMph      sql.NullFloat64 `db:"wind_mph"`
	HasAdvisory  bool            `db:"has_advisory"`
	Reason       []byte          `db:"reason"`
}

func (r snapshotRow) toDomain() (domain.StatusSnapshot, error) {
	snap := domain.StatusSnapshot{
		BeachID:     r.BeachID,
		Timestamp:   r.TS,
		Status:      domain.Status(r.Status),
		HasAdvisory: r.HasAdvisory,
	}
	if r.WaveHeightFt.Valid {
		v := r.WaveHeightFt.Float64
		snap.WaveHeightFt = &v
	}
	if r.WindMph.Valid {
		v := r.WindMph.Float64
		snap.WindMph = &v
	}
	if len(r.Reason) > 0 {
		if err := json.Unmarshal(r.Reason, &snap.Reason); err != nil {
			return domain.StatusSnapshot{}, fmt.Errorf("decode snapshot reason: %w", err)
		}
	}
	return snap, nil
}

func (r *SnapshotRepository) InsertIfAbsent(ctx context.Context, snap domain.StatusSnapshot) error {
	reason, err := json.Marshal(snap.Reason)
	if err != nil {
		return fmt.Errorf("encode snapshot reason: %w", err)
	}

	query := `
		INSERT INTO beach_status (beach_id, ts, status, wave_height_ft, wind_mph, has_advisory, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ON CONSTRAINT beach_status_unique DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		snap.BeachID, snap.Timestamp, snap.Status,
		nullable(snap.WaveHeightFt), nullable(snap.WindMph),
		snap.HasAdvisory, reason,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot beach=%d ts=%s: %w", snap.BeachID, snap.Timestamp.Format(time.RFC3339), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrSnapshotExists
	}
	return nil
}

func (r *SnapshotRepository) Latest(ctx context.Context, beachID int64) (domain.StatusSnapshot, error) {
	var row snapshotRow
	query := `
		SELECT beach_id, ts, status, wave_height_ft, wind_mph, has_advisory, reason
		FROM beach_status
		WHERE beach_id = $1
		ORDER BY ts DESC
		LIMIT 1`

	if err := r.db.GetContext(ctx, &row, query, beachID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StatusSnapshot{}, store.ErrNotFound
		}
		return domain.StatusSnapshot{}, fmt.Errorf("latest snapshot beach=%d: %w", beachID, err)
	}
	return row.toDomain()
}

func (r *SnapshotRepository) History(ctx context.Context, beachID int64, from, to time.Time) ([]domain.StatusSnapshot, error) {
	var rows []snapshotRow
	query := `
		SELECT beach_id, ts, status, wave_height_ft, wind_mph, has_advisory, reason
		FROM beach_status
		WHERE beach_id = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts DESC`

	if err := r.db.SelectContext(ctx, &rows, query, beachID, from, to); err != nil {
		return nil, fmt.Errorf("snapshot history beach=%d: %w", beachID, err)
	}

	snaps := make([]domain.StatusSnapshot, len(rows))
	for i, row := range rows {
		snap, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		snaps[i] = snap
	}
	return snaps, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
