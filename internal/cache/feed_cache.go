package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/onnwee/mentorfeed/internal/feed"
	"github.com/onnwee/mentorfeed/internal/tracing"
)

// FeedCache stores feed pages in a Store, absorbing every failure.
// It implements feed.Cache.
type FeedCache struct {
	store   Store
	codec   Codec
	ttl     time.Duration
	backend string
	metrics *Metrics
	logger  *slog.Logger
}

// FeedCacheConfig configures a FeedCache.
type FeedCacheConfig struct {
	// TTL applies to every write. Default: one hour.
	TTL time.Duration

	// Codec serializes pages. Default: JSON.
	Codec Codec

	// Backend labels spans and metrics (redis, memory, none).
	Backend string
}

// NewFeedCache creates a FeedCache over store.
func NewFeedCache(store Store, cfg FeedCacheConfig, metrics *Metrics, logger *slog.Logger) *FeedCache {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Codec == nil {
		cfg.Codec = jsonCodec{}
	}
	if cfg.Backend == "" {
		cfg.Backend = "unknown"
	}
	return &FeedCache{
		store:   store,
		codec:   cfg.Codec,
		ttl:     cfg.TTL,
		backend: cfg.Backend,
		metrics: metrics,
		logger:  logger,
	}
}

// Get returns the cached page under key. Backend and decode errors are
// logged and reported as a miss.
func (c *FeedCache) Get(ctx context.Context, key string) (*feed.Response, bool) {
	ctx, endSpan := tracing.StartCacheSpan(ctx, c.backend, tracing.CacheOperationGet)

	data, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		endSpan(nil)
		c.metrics.observeLookup(false)
		return nil, false
	}
	if err != nil {
		endSpan(err)
		c.fail(ctx, opGet, err)
		return nil, false
	}

	var resp feed.Response
	if err := c.codec.Unmarshal(data, &resp); err != nil {
		endSpan(err)
		c.fail(ctx, opDecode, err)
		return nil, false
	}
	endSpan(nil)
	c.metrics.observeLookup(true)
	return &resp, true
}

// Put stores resp under key. Failures are logged and dropped.
func (c *FeedCache) Put(ctx context.Context, key string, resp *feed.Response) {
	ctx, endSpan := tracing.StartCacheSpan(ctx, c.backend, tracing.CacheOperationSet)

	data, err := c.codec.Marshal(resp)
	if err != nil {
		endSpan(err)
		c.fail(ctx, opEncode, err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		endSpan(err)
		c.fail(ctx, opSet, err)
		return
	}
	endSpan(nil)
	c.metrics.observeWrite(len(data))
}

func (c *FeedCache) fail(ctx context.Context, op string, err error) {
	c.metrics.observeError(op)
	c.logger.WarnContext(ctx, "feed cache operation failed",
		"op", op,
		"backend", c.backend,
		"codec", c.codec.Name(),
		"error", err,
	)
}
