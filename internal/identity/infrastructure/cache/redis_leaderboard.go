// Package cache holds the Redis-backed leaderboard snapshot.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/atelier/internal/identity/application/queries"
	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "atelier:leaderboard"

// RedisLeaderboardCache implements queries.LeaderboardCache on Redis. Cache
// failures degrade to recomputation, never to request errors.
type RedisLeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLeaderboardCache creates a new RedisLeaderboardCache.
func NewRedisLeaderboardCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisLeaderboardCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLeaderboardCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached leaderboard, if present.
func (c *RedisLeaderboardCache) Get(ctx context.Context) ([]queries.RankedUserDTO, bool) {
	data, err := c.client.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("leaderboard cache read failed", "error", err)
		}
		return nil, false
	}

	var ranked []queries.RankedUserDTO
	if err := json.Unmarshal(data, &ranked); err != nil {
		c.logger.Warn("leaderboard cache entry corrupt", "error", err)
		return nil, false
	}
	return ranked, true
}

// Set stores the leaderboard snapshot with the configured TTL.
func (c *RedisLeaderboardCache) Set(ctx context.Context, users []queries.RankedUserDTO) {
	data, err := json.Marshal(users)
	if err != nil {
		c.logger.Warn("leaderboard cache marshal failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, leaderboardKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("leaderboard cache write failed", "error", err)
	}
}

// Invalidate drops the cached leaderboard.
func (c *RedisLeaderboardCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, leaderboardKey).Err(); err != nil {
		c.logger.Warn("leaderboard cache invalidation failed", "error", err)
	}
}
