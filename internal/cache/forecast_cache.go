package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	forecastKeyPrefix     = "forecast:sku"
	forecastScanBatchSize = 100
)

// ForecastCache keeps recently generated forecast records by SKU.
type ForecastCache interface {
	Get(ctx context.Context, sku string) (*domain.ForecastRecord, bool, error)
	Set(ctx context.Context, rec *domain.ForecastRecord) error
	Invalidate(ctx context.Context, sku string) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

// NewForecastCache returns a redis-backed cache, or a no-op one when caching
// is disabled.
func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{client: client, ttl: ttl}, nil
}

// NewRedisForecastCache wraps an existing client.
func NewRedisForecastCache(client *redis.Client, ttl time.Duration) ForecastCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisForecastCache{client: client, ttl: ttl}
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) Get(ctx context.Context, sku string) (*domain.ForecastRecord, bool, error) {
	payload, err := c.client.Get(ctx, buildForecastKey(sku)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rec domain.ForecastRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}
	return &rec, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, rec *domain.ForecastRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, buildForecastKey(rec.SKU), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) Invalidate(ctx context.Context, sku string) error {
	return c.client.Del(ctx, buildForecastKey(sku)).Err()
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatchSize)
}

func (n *noopForecastCache) Get(ctx context.Context, sku string) (*domain.ForecastRecord, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) Set(ctx context.Context, rec *domain.ForecastRecord) error {
	return nil
}

func (n *noopForecastCache) Invalidate(ctx context.Context, sku string) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildForecastKey(sku string) string {
	return fmt.Sprintf("%s:%s", forecastKeyPrefix, strings.TrimSpace(sku))
}
