package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/store"
)

// AdvisoryRepository implements store.AdvisoryStore.
type AdvisoryRepository struct {
	db *sqlx.DB
}

func (r *AdvisoryRepository) Upsert(ctx context.Context, a domain.Advisory) error {
	query := `
		INSERT INTO advisories (
			id, beach_id, source, status, severity,
			title, description, url, started_at, resolved_at, updated_at
		) VALUES (
			:id, :beach_id, :source, :status, :severity,
			:title, :description, :url, :started_at, :resolved_at, now()
		)
		ON CONFLICT (id) DO UPDATE SET
			status      = EXCLUDED.status,
			severity    = EXCLUDED.severity,
			title       = EXCLUDED.title,
			description = EXCLUDED.description,
			url         = EXCLUDED.url,
			resolved_at = EXCLUDED.resolved_at,
			updated_at  = now()`

	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("upsert advisory %s: %w", a.ID, err)
	}
	return nil
}

func (r *AdvisoryRepository) Resolve(ctx context.Context, id string, resolvedAt time.Time) error {
	query := `
		UPDATE advisories
		SET status = $1, resolved_at = $2, updated_at = now()
		WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, domain.AdvisoryResolved, resolvedAt, id)
	if err != nil {
		return fmt.Errorf("resolve advisory %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *AdvisoryRepository) ListActive(ctx context.Context, beachID int64, at time.Time) ([]domain.Advisory, error) {
	var advisories []domain.Advisory
	query := `
		SELECT id, beach_id, source, status, severity,
		       title, description, url, started_at, resolved_at
		FROM advisories
		WHERE beach_id = $1
		  AND status = 'active'
		  AND started_at <= $2
		  AND (resolved_at IS NULL OR resolved_at > $2)
		ORDER BY id`

	if err := r.db.SelectContext(ctx, &advisories, query, beachID, at); err != nil {
		return nil, fmt.Errorf("list active advisories beach=%d: %w", beachID, err)
	}
	return advisories, nil
}
