// README: Redis-backed cache for the pending complaint backlog count.
package complaint

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	alertCacheKey = "complaints:pending_count"
	alertCacheTTL = 30 * time.Second
)

// RedisAlertCache keeps the pending backlog count out of the hot path of the
// manager dashboard. Misses and errors fall through to the database.
type RedisAlertCache struct {
	client *redis.Client
}

func NewRedisAlertCache(client *redis.Client) *RedisAlertCache {
	return &RedisAlertCache{client: client}
}

func (c *RedisAlertCache) Get(ctx context.Context) (int, bool) {
	n, err := c.client.Get(ctx, alertCacheKey).Int()
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *RedisAlertCache) Set(ctx context.Context, n int) {
	c.client.Set(ctx, alertCacheKey, n, alertCacheTTL)
}
