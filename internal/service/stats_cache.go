package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"postpulse/internal/domain"
	"postpulse/pkg/redis"
)

// cache lookup results, also used as metric labels
const (
	cacheHit     = "hit"
	cacheMiss    = "miss"
	cacheError   = "error"
	cacheCorrupt = "corrupt"
)

// statsVersionTTL only has to outlive a single in-flight load
const statsVersionTTL = 24 * time.Hour

// statsCache stores the shared PostStats snapshot per post. Entries never
// contain viewer-specific fields.
//
// Every invalidation bumps a per-post version. A loader reads the version
// before the store read and its set only lands if the version is unchanged,
// so a snapshot read before a write cannot be cached after that write's
// invalidation.
type statsCache struct {
	Deps
}

func (c statsCache) key(post domain.PostRef) string {
	return c.Cache.KeyBuilder.KeyPostStats(string(post.Type), post.ID)
}

func (c statsCache) versionKey(post domain.PostRef) string {
	return c.Cache.KeyBuilder.KeyStatsVersion(string(post.Type), post.ID)
}

// version returns the invalidation counter to pass to set. ok is false when
// the cache is unusable and the load should not be cached.
func (c statsCache) version(ctx context.Context, post domain.PostRef) (version string, ok bool) {
	if c.Cache == nil {
		return "", false
	}

	ctx, cancel := c.storeCtx(ctx)
	defer cancel()

	v, err := c.Cache.Get(ctx, c.versionKey(post))
	if errors.Is(err, redis.Nil) {
		return "0", true
	}
	if err != nil {
		c.Logger.WithError(err).WithField("post", post.String()).Warn("Stats version unreadable, not caching")
		return "", false
	}
	return v, true
}

func (c statsCache) get(ctx context.Context, post domain.PostRef) (*domain.PostStats, string) {
	if c.Cache == nil {
		return nil, cacheMiss
	}

	ctx, cancel := c.storeCtx(ctx)
	defer cancel()

	raw, err := c.Cache.Get(ctx, c.key(post))
	if errors.Is(err, redis.Nil) {
		return nil, cacheMiss
	}
	if err != nil {
		c.Logger.WithError(err).WithField("post", post.String()).Warn("Stats cache error, falling back to store")
		return nil, cacheError
	}

	var stats domain.PostStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		c.Logger.WithError(err).WithField("post", post.String()).Warn("Stats cache corrupted, dropping entry")
		_ = c.Cache.Delete(ctx, c.key(post))
		return nil, cacheCorrupt
	}
	return &stats, cacheHit
}

func (c statsCache) set(ctx context.Context, post domain.PostRef, stats *domain.PostStats, version string) {
	if c.Cache == nil {
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return
	}

	ctx, cancel := c.storeCtx(ctx)
	defer cancel()

	stored, err := c.Cache.SetIfVersion(ctx, c.key(post), c.versionKey(post), version, data, c.Config.StatsCacheTTL)
	if err != nil {
		c.Logger.WithError(err).WithField("post", post.String()).Warn("Failed to cache stats")
		return
	}
	if !stored {
		c.Logger.WithField("post", post.String()).Debug("Stats changed during load, snapshot not cached")
	}
}

// invalidate drops the snapshot after a write and bumps the version so loads
// already in flight do not re-cache old numbers. A failed delete leaves a
// stale entry that expires with its TTL.
func (c statsCache) invalidate(ctx context.Context, post domain.PostRef) {
	if c.Cache == nil {
		return
	}

	ctx, cancel := c.storeCtx(ctx)
	defer cancel()

	if _, err := c.Cache.IncrWithExpire(ctx, c.versionKey(post), statsVersionTTL); err != nil {
		c.Logger.WithError(err).WithField("post", post.String()).Warn("Failed to bump stats version")
	}
	if err := c.Cache.Delete(ctx, c.key(post)); err != nil {
		c.Logger.WithError(err).WithField("post", post.String()).Warn("Failed to invalidate stats cache")
	}
}
