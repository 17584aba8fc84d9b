package recommend

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"pod-service/internal/logger"
	"pod-service/internal/models"
)

// MatchCache stores scorer results per user/pod pair.
type MatchCache interface {
	Get(ctx context.Context, userID, podID string) (models.PodMatch, bool)
	Set(ctx context.Context, userID, podID string, match models.PodMatch, ttl time.Duration)
}

// RedisCache is a MatchCache on redis. Errors degrade to cache misses.
type RedisCache struct {
	rdb *redis.Client
	log *logger.Logger
}

func NewRedisCache(rdb *redis.Client, log *logger.Logger) *RedisCache {
	return &RedisCache{rdb: rdb, log: log.With("component", "match_cache")}
}

func matchKey(userID, podID string) string {
	return "pod_match:" + userID + ":" + podID
}

func (c *RedisCache) Get(ctx context.Context, userID, podID string) (models.PodMatch, bool) {
	raw, err := c.rdb.Get(ctx, matchKey(userID, podID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("match cache get failed", "error", err)
		}
		return models.PodMatch{}, false
	}
	var match models.PodMatch
	if err := json.Unmarshal(raw, &match); err != nil {
		return models.PodMatch{}, false
	}
	return match, true
}

func (c *RedisCache) Set(ctx context.Context, userID, podID string, match models.PodMatch, ttl time.Duration) {
	raw, err := json.Marshal(match)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, matchKey(userID, podID), raw, ttl).Err(); err != nil {
		c.log.Debug("match cache set failed", "error", err)
	}
}
