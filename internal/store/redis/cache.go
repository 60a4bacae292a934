// Package redis keeps the latest prediction per timeframe hot for the
// dashboard and publishes run status events over PubSub. The SQLite
// store stays the source of truth; everything here is a disposable view.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"forecast-systemv1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	latestKeyPrefix = "forecast:latest:" // + timeframe tag
	statusChannel   = "forecast:status"
	defaultTTL      = 24 * time.Hour
)

// Config configures the Redis cache.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // latest-key lifetime, 0 = 24h
}

// Cache implements model.ResultCache on Redis.
type Cache struct {
	client *goredis.Client
	ttl    time.Duration
}

// Client returns the underlying Redis client for health checks.
func (c *Cache) Client() *goredis.Client { return c.client }

// New creates a new Cache and pings the server.
func New(cfg Config) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Cache{client: client, ttl: ttl}, nil
}

// CacheLatest stores the result under its timeframe key with a TTL so
// stale predictions age out if the analyzer stops running.
func (c *Cache) CacheLatest(ctx context.Context, r *model.AnalysisResult) error {
	key := latestKeyPrefix + r.Timeframe
	if err := c.client.Set(ctx, key, r.JSON(), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Latest returns the cached result for a timeframe tag, or nil.
func (c *Cache) Latest(ctx context.Context, timeframe string) ([]byte, error) {
	b, err := c.client.Get(ctx, latestKeyPrefix+timeframe).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get latest: %w", err)
	}
	return b, nil
}

// PublishStatus broadcasts a run status event for dashboard consumers.
func (c *Cache) PublishStatus(ctx context.Context, st model.ServiceStatus) error {
	if err := c.client.Publish(ctx, statusChannel, st.JSON()).Err(); err != nil {
		return fmt.Errorf("redis publish status: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}
