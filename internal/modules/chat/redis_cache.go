// README: Redis-backed cache for resolved chat answers.
package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const answerCacheTTL = 10 * time.Minute

type cachedAnswer struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
}

// RedisCache keeps resolved answers keyed by the normalized question so
// repeated asks skip the knowledge-base scan and the generator.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func answerKey(question string) string {
	sum := sha256.Sum256([]byte(question))
	return "chat:answer:" + hex.EncodeToString(sum[:])
}

func (c *RedisCache) Get(ctx context.Context, question string) (string, Source, bool) {
	raw, err := c.client.Get(ctx, answerKey(question)).Bytes()
	if err != nil {
		return "", "", false
	}
	var ca cachedAnswer
	if err := json.Unmarshal(raw, &ca); err != nil {
		return "", "", false
	}
	return ca.Text, ca.Source, true
}

func (c *RedisCache) Set(ctx context.Context, question, text string, source Source) {
	raw, err := json.Marshal(cachedAnswer{Text: text, Source: source})
	if err != nil {
		return
	}
	c.client.Set(ctx, answerKey(question), raw, answerCacheTTL)
}
