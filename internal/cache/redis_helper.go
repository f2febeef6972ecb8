package cache

import (
	"context"
	"net"
	"time"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	defaultCacheTTL = 24 * time.Hour

	redisPingTimeout  = 5 * time.Second
	redisDialTimeout  = 3 * time.Second
	redisReadTimeout  = time.Second
	redisWriteTimeout = time.Second
)

// newRedisClient connects and pings; a cache that cannot be reached at startup
// is reported so the caller can fall back to the noop implementation.
func newRedisClient(cfg config.CacheConfig) (*redis.Client, time.Duration, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, 0, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, 0, errors.Wrapf(err, "redis ping %s", opts.Addr)
	}
	return client, ttlFromConfig(cfg), nil
}

// ttlFromConfig doubles as the freshness window for stored forecasts.
func ttlFromConfig(cfg config.CacheConfig) time.Duration {
	if cfg.ForecastTTLSeconds <= 0 {
		return defaultCacheTTL
	}
	return time.Duration(cfg.ForecastTTLSeconds) * time.Second
}

// buildRedisOptions prefers REDIS_URL and otherwise assembles host, port and
// credentials, defaulting to a local instance.
func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.RedisURL != "" {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, errors.Wrap(err, "invalid redis url")
		}
		opts = parsed
	} else {
		host, port := cfg.RedisHost, cfg.RedisPort
		if host == "" {
			host = "127.0.0.1"
		}
		if port == "" {
			port = "6379"
		}
		opts = &redis.Options{
			Addr:     net.JoinHostPort(host, port),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	}

	opts.DialTimeout = redisDialTimeout
	opts.ReadTimeout = redisReadTimeout
	opts.WriteTimeout = redisWriteTimeout
	return opts, nil
}

// deleteKeysWithPrefix walks the keyspace with SCAN and unlinks matches in
// batches, so a large cache never blocks the server on one DEL.
func deleteKeysWithPrefix(ctx context.Context, client *redis.Client, prefix string, batchSize int64) error {
	iter := client.Scan(ctx, 0, prefix+"*", batchSize).Iterator()
	batch := make([]string, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := client.Unlink(ctx, batch...).Err(); err != nil {
			return errors.Wrap(err, "redis unlink")
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "redis scan")
	}
	return flush()
}
