// Package redis implements the snapshot cache on go-redis/v9. The cache is
// a TTL-bounded fallback for seeding the holding store when the portfolio
// API is unreachable; it never becomes a source of truth.
package redis

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forcepush/tradedesk/internal/domain"
)

// defaultSnapshotTTL bounds how stale a cached snapshot may be before a
// failed fetch has to surface instead of seeding from it.
const defaultSnapshotTTL = 15 * time.Minute

// Config holds connection parameters for the cache.
type Config struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	MaxRetries  int
	TLSEnabled  bool
	SnapshotTTL time.Duration // non-positive selects the default
}

// SnapshotCache implements domain.SnapshotCache. Each variant's latest raw
// snapshot payload is stored verbatim at "snapshot:{variant}" with a TTL.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSnapshotCache connects to Redis, verifies connectivity with a ping,
// and returns the cache.
func NewSnapshotCache(ctx context.Context, cfg Config) (*SnapshotCache, error) {
	opts := &redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		PoolSize:   cfg.PoolSize,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	ttl := cfg.SnapshotTTL
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &SnapshotCache{rdb: rdb, ttl: ttl}, nil
}

var _ domain.SnapshotCache = (*SnapshotCache)(nil)

func snapshotKey(variant domain.Variant) string {
	return fmt.Sprintf("snapshot:%d", int(variant))
}

// SetSnapshot stores the variant's raw snapshot payload.
func (sc *SnapshotCache) SetSnapshot(ctx context.Context, variant domain.Variant, raw json.RawMessage) error {
	if err := sc.rdb.Set(ctx, snapshotKey(variant), []byte(raw), sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", variant.Label(), err)
	}
	return nil
}

// GetSnapshot retrieves the variant's cached payload. Returns
// domain.ErrNotFound when no snapshot is cached or the TTL has lapsed.
func (sc *SnapshotCache) GetSnapshot(ctx context.Context, variant domain.Variant) (json.RawMessage, error) {
	data, err := sc.rdb.Get(ctx, snapshotKey(variant)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get snapshot %s: %w", variant.Label(), err)
	}
	return json.RawMessage(data), nil
}

// Close releases the underlying connection pool.
func (sc *SnapshotCache) Close() error {
	return sc.rdb.Close()
}
