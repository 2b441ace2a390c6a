package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/mediaplatform/catalog-service/internal/storage"
	"github.com/mediaplatform/catalog-service/internal/types"
)

// AnalyticsCache wraps storage with Redis caching for per-asset
// analytics snapshots. Redis is an optimization only: every read
// falls back to storage when the cache is unreachable, and failed
// invalidations are logged but never fail the write they follow.
type AnalyticsCache struct {
	storage storage.Storage
	redis   *redis.Client
}

// NewAnalyticsCache creates a new analytics cache service
func NewAnalyticsCache(storage storage.Storage, redisClient *redis.Client) *AnalyticsCache {
	return &AnalyticsCache{
		storage: storage,
		redis:   redisClient,
	}
}

// Cache key patterns
const (
	MediaAnalyticsKey = "media_analytics:%d" // media_analytics:mediaID
)

// Cache durations
const (
	AnalyticsCacheDuration = 600 * time.Second
)

// GetAnalytics returns the cached analytics snapshot or fetches the
// asset from storage, caches the snapshot, and returns it. A cache
// hit is returned verbatim without consulting storage.
func (c *AnalyticsCache) GetAnalytics(ctx context.Context, mediaID int64) (types.Analytics, error) {
	key := fmt.Sprintf(MediaAnalyticsKey, mediaID)

	// Try cache first
	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var analytics types.Analytics
		if err := json.Unmarshal([]byte(cached), &analytics); err == nil {
			return analytics, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("analytics cache read failed, falling back to storage",
			slog.Int64("media_id", mediaID), slog.String("error", err.Error()))
	}

	// Cache miss - fetch from storage
	media, err := c.storage.GetMediaByID(ctx, mediaID)
	if err != nil {
		return types.Analytics{}, err
	}

	analytics := types.Analytics{
		MediaID: media.ID,
		Title:   media.Title,
		Views:   media.Views,
	}

	// Cache the result
	data, _ := json.Marshal(analytics)
	if err := c.redis.Set(ctx, key, data, AnalyticsCacheDuration).Err(); err != nil {
		slog.Warn("analytics cache write failed",
			slog.Int64("media_id", mediaID), slog.String("error", err.Error()))
	}

	return analytics, nil
}

// Invalidate removes any cached analytics entry for the asset. A
// missing entry is a no-op; a backend failure is logged and swallowed
// so the write that triggered the invalidation still succeeds.
func (c *AnalyticsCache) Invalidate(ctx context.Context, mediaID int64) {
	key := fmt.Sprintf(MediaAnalyticsKey, mediaID)
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		slog.Warn("analytics cache invalidation failed",
			slog.Int64("media_id", mediaID), slog.String("error", err.Error()))
	}
}

// IncrementViews applies the increment in storage and invalidates the
// cached snapshot before returning, so no reader observes a cached
// count older than a completed increment.
func (c *AnalyticsCache) IncrementViews(ctx context.Context, mediaID int64) (int64, error) {
	views, err := c.storage.IncrementViews(ctx, mediaID)
	if err != nil {
		return 0, err
	}

	c.Invalidate(ctx, mediaID)

	return views, nil
}
