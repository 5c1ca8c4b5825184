package ranking

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kawaii-gallery/backend/internal/cache"
	"github.com/kawaii-gallery/backend/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize("error", os.DevNull); err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func setupRedis(t *testing.T) *cache.RedisClient {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	rc, err := cache.NewRedisClient(host, port, os.Getenv("REDIS_PASSWORD"))
	if err != nil {
		t.Skipf("Skipping ranking tests: redis not available (%v)", err)
	}
	return rc
}

func seoulLocation(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func TestDedupWindow_MarkIfAbsent(t *testing.T) {
	rc := setupRedis(t)
	defer rc.Close()
	ctx := context.Background()

	d := NewDedupWindow(rc, seoulLocation(t))
	postID := "test-post-" + uuid.New().String()
	userID := "test-user-" + uuid.New().String()
	defer rc.Del(ctx, dedupKeyPrefix+postID)

	// First call is new, second is not
	isNew, err := d.MarkIfAbsent(ctx, postID, userID)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = d.MarkIfAbsent(ctx, postID, userID)
	require.NoError(t, err)
	assert.False(t, isNew)

	seen, err := d.SeenToday(ctx, postID, userID)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestDedupWindow_DistinctUsersAreEachNew(t *testing.T) {
	rc := setupRedis(t)
	defer rc.Close()
	ctx := context.Background()

	d := NewDedupWindow(rc, seoulLocation(t))
	postID := "test-post-" + uuid.New().String()
	defer rc.Del(ctx, dedupKeyPrefix+postID)

	for i := 0; i < 3; i++ {
		isNew, err := d.MarkIfAbsent(ctx, postID, fmt.Sprintf("test-user-%d", i))
		require.NoError(t, err)
		assert.True(t, isNew)
	}
}

func TestDedupWindow_TTLArmedOnceAtMidnightBoundary(t *testing.T) {
	rc := setupRedis(t)
	defer rc.Close()
	ctx := context.Background()

	loc := seoulLocation(t)
	d := NewDedupWindow(rc, loc)
	// Pin the clock one hour before midnight KST
	d.now = func() time.Time {
		return time.Date(2024, 3, 15, 23, 0, 0, 0, loc)
	}

	postID := "test-post-" + uuid.New().String()
	key := dedupKeyPrefix + postID
	defer rc.Del(ctx, key)

	_, err := d.MarkIfAbsent(ctx, postID, "test-user-a")
	require.NoError(t, err)

	ttl, err := rc.TTL(ctx, key)
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)

	// A later insertion must not refresh the TTL
	d.now = func() time.Time {
		return time.Date(2024, 3, 15, 23, 30, 0, 0, loc)
	}
	isNew, err := d.MarkIfAbsent(ctx, postID, "test-user-b")
	require.NoError(t, err)
	assert.True(t, isNew)

	ttl2, err := rc.TTL(ctx, key)
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl2.Seconds(), ttl.Seconds())
}

func TestLeaderboard_ScoresAreMonotonic(t *testing.T) {
	rc := setupRedis(t)
	defer rc.Close()
	ctx := context.Background()

	l := NewLeaderboard(rc, seoulLocation(t))
	l.key = "test:ranking:" + uuid.New().String()
	defer rc.Del(ctx, l.key)

	postID := "test-post-" + uuid.New().String()
	var last int64
	for i := 0; i < 3; i++ {
		require.NoError(t, l.IncrementScore(ctx, postID))

		entries, err := l.TopN(ctx, 10)
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, postID, entries[0].PostID)
		assert.Greater(t, entries[0].Score, last)
		last = entries[0].Score
	}
	assert.Equal(t, int64(3), last)
}

func TestLeaderboard_TopNOrderingAndShape(t *testing.T) {
	rc := setupRedis(t)
	defer rc.Close()
	ctx := context.Background()

	l := NewLeaderboard(rc, seoulLocation(t))
	l.key = "test:ranking:" + uuid.New().String()
	defer rc.Del(ctx, l.key)

	// post-c has 3, post-b has 2, post-a has 1
	scores := map[string]int{"post-a": 1, "post-b": 2, "post-c": 3}
	for postID, n := range scores {
		for i := 0; i < n; i++ {
			require.NoError(t, l.IncrementScore(ctx, postID))
		}
	}

	// TopN(n) returns up to n+1 entries, highest first
	entries, err := l.TopN(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{PostID: "post-c", Score: 3}, entries[0])
	assert.Equal(t, Entry{PostID: "post-b", Score: 2}, entries[1])

	entries, err = l.TopN(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].Score, entries[i].Score)
	}
}

func TestLeaderboard_TieBreakIsDeterministic(t *testing.T) {
	rc := setupRedis(t)
	defer rc.Close()
	ctx := context.Background()

	l := NewLeaderboard(rc, seoulLocation(t))
	l.key = "test:ranking:" + uuid.New().String()
	defer rc.Del(ctx, l.key)

	require.NoError(t, l.IncrementScore(ctx, "post-a"))
	require.NoError(t, l.IncrementScore(ctx, "post-b"))

	// Equal scores order by member, reverse range puts the greater ID first
	entries, err := l.TopN(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "post-b", entries[0].PostID)
	assert.Equal(t, "post-a", entries[1].PostID)
}

func TestLeaderboard_EmptyIsNotFound(t *testing.T) {
	rc := setupRedis(t)
	defer rc.Close()
	ctx := context.Background()

	l := NewLeaderboard(rc, seoulLocation(t))
	l.key = "test:ranking:" + uuid.New().String()

	_, err := l.TopN(ctx, 10)
	assert.ErrorIs(t, err, ErrLeaderboardEmpty)
}

func TestLeaderboard_TTLArmedOnFirstIncrement(t *testing.T) {
	rc := setupRedis(t)
	defer rc.Close()
	ctx := context.Background()

	loc := seoulLocation(t)
	l := NewLeaderboard(rc, loc)
	l.key = "test:ranking:" + uuid.New().String()
	l.now = func() time.Time {
		return time.Date(2024, 3, 15, 22, 0, 0, 0, loc)
	}
	defer rc.Del(ctx, l.key)

	require.NoError(t, l.IncrementScore(ctx, "post-a"))

	ttl, err := rc.TTL(ctx, l.key)
	require.NoError(t, err)
	assert.InDelta(t, (2 * time.Hour).Seconds(), ttl.Seconds(), 5)
}
