package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "lock:"

// releaseScript deletes KEYS[1] only if it still holds ARGV[1].
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCoordinator implements Coordinator with SET NX PX and a compare-and-delete script.
type RedisCoordinator struct {
	client    redis.Cmdable
	keyPrefix string
	owner     string
}

// NewRedisCoordinator creates a coordinator. owner is embedded in every token
// (typically hostname or instance id) to make held locks attributable.
func NewRedisCoordinator(client redis.Cmdable, owner string) *RedisCoordinator {
	return &RedisCoordinator{client: client, keyPrefix: defaultKeyPrefix, owner: owner}
}

// Acquire sets the key if absent with the given expiry.
func (c *RedisCoordinator) Acquire(ctx context.Context, key string, ttl time.Duration) (Token, error) {
	token := newToken(c.owner)
	ok, err := c.client.SetNX(ctx, c.keyPrefix+key, string(token), effectiveTTL(ttl)).Result()
	if err != nil {
		return "", fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return "", ErrBusy
	}
	return token, nil
}

// Release deletes the key if token still owns it.
func (c *RedisCoordinator) Release(ctx context.Context, key string, token Token) error {
	deleted, err := releaseScript.Run(ctx, c.client, []string{c.keyPrefix + key}, string(token)).Int64()
	if err != nil {
		return fmt.Errorf("redis release: %w", err)
	}
	if deleted == 0 {
		return ErrNotHeld
	}
	return nil
}
