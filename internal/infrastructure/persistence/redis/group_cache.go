package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// GroupDataCache caches the combined roster+stats view per group. A miss or a
// Redis failure is never fatal; callers fall through to Postgres.
type GroupDataCache struct {
	cache  *Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewGroupDataCache creates a combined-view cache with the given TTL.
func NewGroupDataCache(cache *Cache, ttl time.Duration, logger *slog.Logger) *GroupDataCache {
	if ttl <= 0 {
		ttl = TTLGroupData
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupDataCache{cache: cache, ttl: ttl, logger: logger}
}

// GetView decodes the cached view for a group into dest. Returns false on a
// miss or any Redis failure.
func (g *GroupDataCache) GetView(ctx context.Context, groupName string, dest any) bool {
	err := g.cache.Get(ctx, GroupDataKey(groupName), dest)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			g.logger.Warn("combined view cache read failed",
				slog.String("group", groupName),
				slog.String("error", err.Error()))
		}
		return false
	}
	return true
}

// PutView stores the combined view for a group.
func (g *GroupDataCache) PutView(ctx context.Context, groupName string, view any) {
	if err := g.cache.Set(ctx, GroupDataKey(groupName), view, g.ttl); err != nil {
		g.logger.Warn("combined view cache write failed",
			slog.String("group", groupName),
			slog.String("error", err.Error()))
	}
}

// Invalidate drops the cached view after a roster change or a sync run.
func (g *GroupDataCache) Invalidate(ctx context.Context, groupName string) {
	if err := g.cache.Delete(ctx, GroupDataKey(groupName)); err != nil {
		g.logger.Warn("combined view cache invalidation failed",
			slog.String("group", groupName),
			slog.String("error", err.Error()))
	}
}
