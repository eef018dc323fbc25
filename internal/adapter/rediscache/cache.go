// Package rediscache caches the latest status snapshot per beach so the
// query surface can answer without hitting Postgres on every poll.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
	"github.com/couchcryptid/beach-status-engine/internal/observability"
)

// Cache stores the newest snapshot per beach under a TTL. Entries are
// advisory: a miss or error falls back to storage.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr string, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}

	return &Cache{client: client, ttl: ttl, logger: logger, metrics: metrics}, nil
}

func key(beachID int64) string {
	return fmt.Sprintf("beach_status:latest:%d", beachID)
}

// SetLatest stores the snapshot as the beach's current status.
func (c *Cache) SetLatest(ctx context.Context, s domain.StatusSnapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, key(s.BeachID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache snapshot beach=%d: %w", s.BeachID, err)
	}
	return nil
}

// GetLatest returns the cached snapshot, reporting whether one was found.
func (c *Cache) GetLatest(ctx context.Context, beachID int64) (domain.StatusSnapshot, bool, error) {
	data, err := c.client.Get(ctx, key(beachID)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return domain.StatusSnapshot{}, false, nil
	}
	if err != nil {
		c.metrics.CacheLookups.WithLabelValues("error").Inc()
		return domain.StatusSnapshot{}, false, fmt.Errorf("cache lookup beach=%d: %w", beachID, err)
	}

	var snap domain.StatusSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt entry behaves like a miss; the next fill overwrites it.
		c.metrics.CacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("corrupt cache entry", "beach_id", beachID, "error", err)
		return domain.StatusSnapshot{}, false, nil
	}

	c.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return snap, true, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}
