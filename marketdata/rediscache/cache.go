// Package rediscache keeps published curve snapshots in Redis so repeated
// runs over the same dates do not hit the publisher again.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/redis/go-redis/v9"

	"github.com/rustyeddy/ratecheck/marketdata"
)

const keyPrefix = "ratecheck:pre:"

// Options holds connection parameters for the cache.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Cache is a read-through marketdata.Source. Only non-empty snapshots are
// stored; a Redis failure falls back to the upstream source.
type Cache struct {
	rdb      *redis.Client
	upstream marketdata.Source
	ttl      time.Duration
	logger   *slog.Logger
}

// Dial connects to Redis and verifies the connection with a ping.
func Dial(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("rediscache: ping: %w", err)
	}
	return rdb, nil
}

// New wraps upstream with rdb. A zero ttl keeps entries forever.
func New(rdb *redis.Client, upstream marketdata.Source, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		rdb:      rdb,
		upstream: upstream,
		ttl:      ttl,
		logger:   logger.With(slog.String("component", "rediscache")),
	}
}

func key(date civil.Date) string {
	return keyPrefix + date.String()
}

func (c *Cache) Snapshot(ctx context.Context, date civil.Date) ([]marketdata.Quote, error) {
	quotes, err := c.get(ctx, date)
	switch {
	case err == nil:
		c.logger.DebugContext(ctx, "cache hit", slog.String("date", date.String()))
		return quotes, nil
	case errors.Is(err, redis.Nil):
	default:
		c.logger.WarnContext(ctx, "cache read failed", slog.String("date", date.String()), slog.String("error", err.Error()))
	}

	quotes, err = c.upstream.Snapshot(ctx, date)
	if err != nil || len(quotes) == 0 {
		return quotes, err
	}

	if err := c.put(ctx, date, quotes); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", slog.String("date", date.String()), slog.String("error", err.Error()))
	}
	return quotes, nil
}

func (c *Cache) get(ctx context.Context, date civil.Date) ([]marketdata.Quote, error) {
	b, err := c.rdb.Get(ctx, key(date)).Bytes()
	if err != nil {
		return nil, err
	}
	var quotes []marketdata.Quote
	if err := json.Unmarshal(b, &quotes); err != nil {
		return nil, fmt.Errorf("rediscache: decode %s: %w", key(date), err)
	}
	return quotes, nil
}

func (c *Cache) put(ctx context.Context, date civil.Date, quotes []marketdata.Quote) error {
	b, err := json.Marshal(quotes)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key(date), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("rediscache: set %s: %w", key(date), err)
	}
	return nil
}

// Evict removes the cached snapshot for date.
func (c *Cache) Evict(ctx context.Context, date civil.Date) error {
	if err := c.rdb.Del(ctx, key(date)).Err(); err != nil {
		return fmt.Errorf("rediscache: del %s: %w", key(date), err)
	}
	return nil
}
