package ranking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kawaii-gallery/backend/internal/cache"
	"github.com/kawaii-gallery/backend/internal/clock"
	"github.com/kawaii-gallery/backend/internal/logger"
	"go.uber.org/zap"
)

// DefaultLeaderboardKey is the sorted set holding today's scores.
const DefaultLeaderboardKey = "ranking:daily"

// ErrLeaderboardEmpty is returned by TopN when the board has no entries,
// either because nothing was liked today or the window just expired.
var ErrLeaderboardEmpty = errors.New("leaderboard is empty")

// Entry is one leaderboard row
type Entry struct {
	PostID string `json:"post_id"`
	Score  int64  `json:"score"`
}

// Leaderboard accumulates one point per qualifying like event per post and
// resets at local midnight. Scores are monotonic within a window: unlikes do
// not decrement them.
type Leaderboard struct {
	redis *cache.RedisClient
	loc   *time.Location
	key   string
	now   func() time.Time
}

// NewLeaderboard creates the daily leaderboard expiring at midnight in loc.
func NewLeaderboard(redisClient *cache.RedisClient, loc *time.Location) *Leaderboard {
	return &Leaderboard{
		redis: redisClient,
		loc:   loc,
		key:   DefaultLeaderboardKey,
		now:   time.Now,
	}
}

// IncrementScore adds one point to postID's score for the current window.
// The first increment after an expiry arms a TTL on the whole sorted set.
func (l *Leaderboard) IncrementScore(ctx context.Context, postID string) error {
	score, err := l.redis.ZIncrBy(ctx, l.key, 1, postID)
	if err != nil {
		return fmt.Errorf("leaderboard zincrby: %w", err)
	}

	ttl, err := l.redis.TTL(ctx, l.key)
	if err != nil {
		return fmt.Errorf("leaderboard ttl: %w", err)
	}
	if ttl < 0 {
		until := clock.UntilMidnight(l.now(), l.loc)
		if err := l.redis.Expire(ctx, l.key, until); err != nil {
			return fmt.Errorf("leaderboard expire: %w", err)
		}
		logger.Log.Debug("armed leaderboard window", zap.Duration("ttl", until))
	}

	logger.Log.Debug("leaderboard score incremented",
		logger.WithPostID(postID),
		zap.Float64("score", score),
	)
	return nil
}

// TopN returns up to n+1 entries, highest score first. The extra entry is the
// calling convention inherited from the ranking display, which asks for one
// row beyond what it renders; callers wanting exactly n must slice the result.
//
// Ties are broken by post ID: Redis orders equal scores lexicographically by
// member, so the reverse range yields the greater post ID first. Deterministic
// across calls.
//
// Returns ErrLeaderboardEmpty when the board has no entries.
func (l *Leaderboard) TopN(ctx context.Context, n int) ([]Entry, error) {
	if n < 0 {
		n = 0
	}

	rows, err := l.redis.ZRevRangeWithScores(ctx, l.key, 0, int64(n))
	if err != nil {
		return nil, fmt.Errorf("leaderboard zrevrange: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrLeaderboardEmpty
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		postID, ok := row.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{PostID: postID, Score: int64(row.Score)})
	}
	return entries, nil
}
