package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/store"
)

// OverrideRepository implements store.OverrideStore.
type OverrideRepository struct {
	db *sqlx.DB
}

func (r *OverrideRepository) Create(ctx context.Context, o domain.ManualOverride) error {
	query := `
		INSERT INTO manual_overrides (
			id, beach_id, override_type, value, reason,
			starts_at, ends_at, is_active, admin_user_id, created_at
		) VALUES (
			:id, :beach_id, :override_type, :value, :reason,
			:starts_at, :ends_at, :is_active, :admin_user_id, :created_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, o); err != nil {
		return fmt.Errorf("create override %s: %w", o.ID, err)
	}
	return nil
}

func (r *OverrideRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE manual_overrides SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate override %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *OverrideRepository) ListInEffect(ctx context.Context, beachID int64, at time.Time) ([]domain.ManualOverride, error) {
	var overrides []domain.ManualOverride
	query := `
		SELECT id, beach_id, override_type, value, reason,
		       starts_at, ends_at, is_active, admin_user_id, created_at
		FROM manual_overrides
		WHERE beach_id = $1
		  AND is_active
		  AND starts_at <= $2
		  AND ends_at >= $2
		ORDER BY id`

	if err := r.db.SelectContext(ctx, &overrides, query, beachID, at); err != nil {
		return nil, fmt.Errorf("list overrides beach=%d: %w", beachID, err)
	}
	return overrides, nil
}
