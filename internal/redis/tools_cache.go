package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/streamhaus/chatbridge/internal/domain"
	"github.com/streamhaus/chatbridge/internal/metrics"
)

const (
	toolsCachePrefix = "tools_config:"
	toolsCacheTTL    = 60 * time.Second
)

// BlobStore is the underlying durable store for tools config blobs.
type BlobStore interface {
	Get(ctx context.Context, tenant domain.TenantID) ([]byte, error)
}

// ToolsConfigCache provides read-through caching of tools config blobs:
// Redis GET, then the durable store, then populate Redis. Redis failures
// fall through to the store so a cache outage never blocks broadcasts.
type ToolsConfigCache struct {
	rdb   goredis.Cmdable
	store BlobStore
}

func NewToolsConfigCache(rdb goredis.Cmdable, store BlobStore) *ToolsConfigCache {
	return &ToolsConfigCache{rdb: rdb, store: store}
}

// Get returns the tenant's config blob, nil when absent.
func (c *ToolsConfigCache) Get(ctx context.Context, tenant domain.TenantID) ([]byte, error) {
	key := toolsCachePrefix + tenant.String()

	blob, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		metrics.ConfigCacheHits.Inc()
		return blob, nil
	}
	if !errors.Is(err, goredis.Nil) {
		slog.WarnContext(ctx, "Tools config cache read failed, falling through to store",
			"tenant_id", tenant.String(), "error", err)
	}
	metrics.ConfigCacheMisses.Inc()

	blob, err = c.store.Get(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}

	if err := c.rdb.Set(ctx, key, blob, toolsCacheTTL).Err(); err != nil {
		slog.WarnContext(ctx, "Tools config cache write failed",
			"tenant_id", tenant.String(), "error", err)
	}
	return blob, nil
}

// Invalidate drops a tenant's cached blob. Called after config writes so the
// next broadcast observes the new destinations immediately.
func (c *ToolsConfigCache) Invalidate(ctx context.Context, tenant domain.TenantID) error {
	if err := c.rdb.Del(ctx, toolsCachePrefix+tenant.String()).Err(); err != nil {
		return err
	}
	return nil
}
