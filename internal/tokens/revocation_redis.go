package tokens

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:access:"

// RedisRevocations is a Redis-backed RevocationStore for multi-instance
// deployments. Redis TTLs provide the expiry-based cleanup.
type RedisRevocations struct {
	client *redis.Client
}

func NewRedisRevocations(client *redis.Client) *RedisRevocations {
	return &RedisRevocations{client: client}
}

func (r *RedisRevocations) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return r.client.Set(ctx, revokedKeyPrefix+token, "1", ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, token string) (bool, error) {
	exists, err := r.client.Exists(ctx, revokedKeyPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
