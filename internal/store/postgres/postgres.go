// Package postgres implements the store interfaces over PostgreSQL using
// sqlx. The schema mirrors the production dashboard tables; deleting a
// beach cascades to its readings, advisories, overrides, status history,
// and alert rules.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// Open connects to Postgres and verifies the connection with a ping.
func Open(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema. Every statement is idempotent
// (CREATE ... IF NOT EXISTS), so Migrate is safe to run at each startup.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Store bundles the Postgres repositories over one connection pool.
type Store struct {
	Beaches    *BeachRepository
	Readings   *ReadingRepository
	Advisories *AdvisoryRepository
	Overrides  *OverrideRepository
	Snapshots  *SnapshotRepository
	Rules      *AlertRuleRepository
}

// NewStore creates repositories sharing the given pool.
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		Beaches:    &BeachRepository{db: db},
		Readings:   &ReadingRepository{db: db},
		Advisories: &AdvisoryRepository{db: db},
		Overrides:  &OverrideRepository{db: db},
		Snapshots:  &SnapshotRepository{db: db},
		Rules:      &AlertRuleRepository{db: db},
	}
}
