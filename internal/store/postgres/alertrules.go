package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
)

// AlertRuleRepository implements store.AlertRuleStore. Rule rows are
// configuration owned by the admin flow; the engine only writes the
// per-(rule, beach) firing bookkeeping.
type AlertRuleRepository struct {
	db *sqlx.DB
}

type alertRuleRow struct {
	ID          string        `db:"id"`
	BeachID     sql.NullInt64 `db:"beach_id"`
	TriggerKind string        `db:"trigger_kind"`
	FromStatus  string        `db:"from_status"`
	ToStatus    string        `db:"to_status"`
	CooldownSec int64         `db:"cooldown_seconds"`
	LastFiredAt sql.NullTime  `db:"last_fired_at"`
}

func (r alertRuleRow) toDomain() domain.AlertRule {
	rule := domain.AlertRule{
		ID: r.ID,
		Trigger: domain.AlertTrigger{
			Kind: domain.TriggerKind(r.TriggerKind),
			From: domain.Status(r.FromStatus),
			To:   domain.Status(r.ToStatus),
		},
		Cooldown: time.Duration(r.CooldownSec) * time.Second,
	}
	if r.BeachID.Valid {
		id := r.BeachID.Int64
		rule.BeachID = &id
	}
	if r.LastFiredAt.Valid {
		t := r.LastFiredAt.Time
		rule.LastFiredAt = &t
	}
	return rule
}

func (r *AlertRuleRepository) ListForBeach(ctx context.Context, beachID int64) ([]domain.AlertRule, error) {
	var rows []alertRuleRow
	query := `
		SELECT r.id, r.beach_id, r.trigger_kind, r.from_status, r.to_status, r.cooldown_seconds,
		       f.last_fired_at
		FROM alert_rules r
		LEFT JOIN alert_rule_firings f ON f.rule_id = r.id AND f.beach_id = $1
		WHERE r.beach_id = $1 OR r.beach_id IS NULL
		ORDER BY r.id`

	if err := r.db.SelectContext(ctx, &rows, query, beachID); err != nil {
		return nil, fmt.Errorf("list alert rules beach=%d: %w", beachID, err)
	}

	rules := make([]domain.AlertRule, len(rows))
	for i, row := range rows {
		rules[i] = row.toDomain()
	}
	return rules, nil
}

func (r *AlertRuleRepository) UpdateLastFired(ctx context.Context, ruleID string, beachID int64, firedAt time.Time) error {
	query := `
		INSERT INTO alert_rule_firings (rule_id, beach_id, last_fired_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (rule_id, beach_id) DO UPDATE SET last_fired_at = EXCLUDED.last_fired_at`

	if _, err := r.db.ExecContext(ctx, query, ruleID, beachID, firedAt); err != nil {
		return fmt.Errorf("update last fired for rule %s beach %d: %w", ruleID, beachID, err)
	}
	return nil
}
