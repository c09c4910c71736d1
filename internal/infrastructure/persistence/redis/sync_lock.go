package redis

import (
	"context"
	"time"
)

// SyncLock serializes sync runs per group using SET NX. The TTL bounds
// lock lifetime when a holder crashes without unlocking.
type SyncLock struct {
	cache *Cache
	ttl   time.Duration
}

// NewSyncLock creates a sync lock with the given TTL.
func NewSyncLock(cache *Cache, ttl time.Duration) *SyncLock {
	if ttl <= 0 {
		ttl = TTLSyncLock
	}
	return &SyncLock{cache: cache, ttl: ttl}
}

// TryLock acquires the per-group lock if free.
func (l *SyncLock) TryLock(ctx context.Context, groupName string) (bool, error) {
	return l.cache.SetNX(ctx, SyncLockKey(groupName), "1", l.ttl)
}

// Unlock releases the per-group lock.
func (l *SyncLock) Unlock(ctx context.Context, groupName string) error {
	return l.cache.Delete(ctx, SyncLockKey(groupName))
}
