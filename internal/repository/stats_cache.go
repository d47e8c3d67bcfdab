package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/sla-engine/internal/domain"
)

const statsCacheKey = "sla:stats"

// StatsCache stores the latest compliance summary.
type StatsCache interface {
	Get(ctx context.Context) (*domain.SLAStats, error)
	Set(ctx context.Context, stats domain.SLAStats) error
	Invalidate(ctx context.Context) error
}

type redisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache caches stats in redis. A nil client or non-positive ttl
// disables caching.
func NewStatsCache(client *redis.Client, ttl time.Duration) StatsCache {
	if client == nil || ttl <= 0 {
		return noopStatsCache{}
	}
	return &redisStatsCache{client: client, ttl: ttl}
}

// Get returns nil without error on a cache miss.
func (c *redisStatsCache) Get(ctx context.Context) (*domain.SLAStats, error) {
	raw, err := c.client.Get(ctx, statsCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stats domain.SLAStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *redisStatsCache) Set(ctx context.Context, stats domain.SLAStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsCacheKey, raw, c.ttl).Err()
}

func (c *redisStatsCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, statsCacheKey).Err()
}

type noopStatsCache struct{}

func (noopStatsCache) Get(context.Context) (*domain.SLAStats, error) { return nil, nil }
func (noopStatsCache) Set(context.Context, domain.SLAStats) error    { return nil }
func (noopStatsCache) Invalidate(context.Context) error              { return nil }
