package health

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisChecker checks the cache backend.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a Redis health checker.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// HealthCheck sends PING.
func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis not configured")
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
