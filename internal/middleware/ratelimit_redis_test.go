package middleware

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
)

// newTestRedis connects to localhost:6379 or skips the test.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skip("Redis not available, skipping integration test")
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisRateLimitStore_Allow(t *testing.T) {
	client := newTestRedis(t)
	store := NewRedisRateLimitStore(client)
	config := RateLimitConfig{RequestsPerWindow: 5, WindowDuration: time.Minute}
	ctx := context.Background()

	testKey := "test-redis-key-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	defer client.Del(ctx, "ratelimit:"+testKey)

	for i := 0; i < 5; i++ {
		allowed, remaining, _ := store.Allow(ctx, testKey, config)
		if !allowed {
			t.Errorf("request %d should be allowed", i+1)
		}
		if remaining != 4-i {
			t.Errorf("request %d: expected remaining=%d, got %d", i+1, 4-i, remaining)
		}
	}

	allowed, remaining, retryAfter := store.Allow(ctx, testKey, config)
	if allowed {
		t.Error("6th request should be blocked")
	}
	if remaining != 0 {
		t.Errorf("expected remaining=0 when blocked, got %d", remaining)
	}
	if retryAfter <= 0 || retryAfter > 60 {
		t.Errorf("expected retryAfter between 1 and 60, got %d", retryAfter)
	}
}

func TestRedisRateLimitStore_WindowExpiry(t *testing.T) {
	client := newTestRedis(t)
	store := NewRedisRateLimitStore(client)
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: 100 * time.Millisecond}
	ctx := context.Background()

	testKey := "test-redis-expiry-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	defer client.Del(ctx, "ratelimit:"+testKey)

	if allowed, _, _ := store.Allow(ctx, testKey, config); !allowed {
		t.Error("first request should be allowed")
	}
	if allowed, _, _ := store.Allow(ctx, testKey, config); allowed {
		t.Error("second request should be blocked")
	}

	time.Sleep(150 * time.Millisecond)

	if allowed, _, _ := store.Allow(ctx, testKey, config); !allowed {
		t.Error("request after window expiry should be allowed")
	}
}

func TestRedisRateLimitStore_FailOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:       "127.0.0.1:1",
		MaxRetries: -1,
	})
	defer client.Close()

	metrics := NewMetrics()
	store := NewRedisRateLimitStore(client).WithMetrics(metrics)
	config := RateLimitConfig{RequestsPerWindow: 5, WindowDuration: time.Minute}

	allowed, remaining, _ := store.Allow(context.Background(), "test-key", config)
	if !allowed {
		t.Error("should fail open and allow request when Redis is unavailable")
	}
	if remaining != config.RequestsPerWindow {
		t.Errorf("should return full quota on error, got %d", remaining)
	}
	if got := testutil.ToFloat64(metrics.rateLimitRedisErrors); got != 1 {
		t.Errorf("expected 1 redis error recorded, got %f", got)
	}
}
