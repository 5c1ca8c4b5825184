// Package ranking implements the same-day like ranking subsystem: a per-post
// dedup window gating scoring/notification, and the daily leaderboard.
// Both structures live in Redis and expire at local midnight (clock package).
package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/kawaii-gallery/backend/internal/cache"
	"github.com/kawaii-gallery/backend/internal/clock"
	"github.com/kawaii-gallery/backend/internal/logger"
	"go.uber.org/zap"
)

const dedupKeyPrefix = "like:notified:"

// DedupWindow tracks which users have already produced a scored like event
// for a post today. Backed by a Redis set per post.
type DedupWindow struct {
	redis *cache.RedisClient
	loc   *time.Location
	now   func() time.Time
}

// NewDedupWindow creates a dedup window expiring at midnight in loc.
func NewDedupWindow(redisClient *cache.RedisClient, loc *time.Location) *DedupWindow {
	return &DedupWindow{
		redis: redisClient,
		loc:   loc,
		now:   time.Now,
	}
}

// MarkIfAbsent records userID against postID for the current day window and
// reports whether this was the first time (true = a new qualifying like event).
//
// SADD is atomic server-side, so concurrent callers for the same pair resolve
// to exactly one "new" result. The TTL is armed only when the key is fresh;
// later insertions never refresh it, so the whole set dies at the midnight
// after its first entry.
func (d *DedupWindow) MarkIfAbsent(ctx context.Context, postID, userID string) (bool, error) {
	key := dedupKeyPrefix + postID

	added, err := d.redis.SAdd(ctx, key, userID)
	if err != nil {
		return false, fmt.Errorf("dedup sadd: %w", err)
	}
	if added == 0 {
		return false, nil
	}

	ttl, err := d.redis.TTL(ctx, key)
	if err != nil {
		return false, fmt.Errorf("dedup ttl: %w", err)
	}
	if ttl < 0 {
		until := clock.UntilMidnight(d.now(), d.loc)
		if err := d.redis.Expire(ctx, key, until); err != nil {
			return false, fmt.Errorf("dedup expire: %w", err)
		}
		logger.Log.Debug("armed dedup window",
			logger.WithPostID(postID),
			zap.Duration("ttl", until),
		)
	}

	return true, nil
}

// SeenToday reports whether userID already has a scored like event for postID
// in the current window, without mutating the set.
func (d *DedupWindow) SeenToday(ctx context.Context, postID, userID string) (bool, error) {
	return d.redis.SIsMember(ctx, dedupKeyPrefix+postID, userID)
}
