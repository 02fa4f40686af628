package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"news-rag-chatbot/internal/logger"
	"news-rag-chatbot/internal/telemetry"
)

// tieredCache prefers the durable tier and latches onto the in-process tier
// for the rest of the process once any durable operation errors. Cache
// trouble is absorbed here and logged; it never reaches the end user.
type tieredCache struct {
	primary  Cache
	fallback Cache
	degraded atomic.Bool
	metrics  *telemetry.Metrics
}

// NewTieredCache builds the two-tier session cache. A nil primary starts
// directly on the in-process tier (durable store unavailable at startup).
func NewTieredCache(primary Cache, metrics *telemetry.Metrics) Cache {
	tc := &tieredCache{
		primary:  primary,
		fallback: NewMemoryCache(),
		metrics:  metrics,
	}
	if primary == nil {
		tc.degraded.Store(true)
		logger.Warn("session cache starting on in-process tier, TTL expiry disabled")
	}
	return tc
}

func (tc *tieredCache) demote(op string, err error) {
	if tc.degraded.CompareAndSwap(false, true) {
		logger.Error("session cache degraded to in-process tier", "operation", op, "error", err)
		if tc.metrics != nil {
			tc.metrics.CacheTierFallbacks.Add(context.Background(), 1)
		}
	}
}

func (tc *tieredCache) Get(ctx context.Context, key string) (string, error) {
	if !tc.degraded.Load() {
		val, err := tc.primary.Get(ctx, key)
		if err == nil || errors.Is(err, ErrCacheMiss) {
			return val, err
		}
		tc.demote("get", err)
	}
	return tc.fallback.Get(ctx, key)
}

func (tc *tieredCache) Set(ctx context.Context, key, value string) error {
	if !tc.degraded.Load() {
		if err := tc.primary.Set(ctx, key, value); err == nil {
			return nil
		} else {
			tc.demote("set", err)
		}
	}
	return tc.fallback.Set(ctx, key, value)
}

func (tc *tieredCache) Push(ctx context.Context, key, value string, maxLen int64) error {
	if !tc.degraded.Load() {
		if err := tc.primary.Push(ctx, key, value, maxLen); err == nil {
			return nil
		} else {
			tc.demote("push", err)
		}
	}
	return tc.fallback.Push(ctx, key, value, maxLen)
}

func (tc *tieredCache) List(ctx context.Context, key string) ([]string, error) {
	if !tc.degraded.Load() {
		list, err := tc.primary.List(ctx, key)
		if err == nil {
			return list, nil
		}
		tc.demote("list", err)
	}
	return tc.fallback.List(ctx, key)
}

func (tc *tieredCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if !tc.degraded.Load() {
		if err := tc.primary.Expire(ctx, key, ttl); err == nil {
			return nil
		} else {
			tc.demote("expire", err)
		}
	}
	return tc.fallback.Expire(ctx, key, ttl)
}

func (tc *tieredCache) Delete(ctx context.Context, keys ...string) error {
	if !tc.degraded.Load() {
		if err := tc.primary.Delete(ctx, keys...); err == nil {
			return nil
		} else {
			tc.demote("delete", err)
		}
	}
	return tc.fallback.Delete(ctx, keys...)
}
