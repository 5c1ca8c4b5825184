// Package engagement implements the like-toggle write path: the post's liker
// set and counter, the daily dedup gate, the leaderboard update, and the push
// notification that follows a qualifying like.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kawaii-gallery/backend/internal/logger"
	"github.com/kawaii-gallery/backend/internal/metrics"
	"github.com/kawaii-gallery/backend/internal/models"
	"github.com/kawaii-gallery/backend/internal/notifications"
	"github.com/kawaii-gallery/backend/internal/ranking"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPostNotFound = errors.New("post not found")

// Service is the only writer of a post's liked_user_ids and like_count.
type Service struct {
	db          *gorm.DB
	dedup       *ranking.DedupWindow
	leaderboard *ranking.Leaderboard
	notifier    *notifications.Service
}

// NewService wires the like toggle engine. notifier may be nil, which
// disables pushes without touching the toggle or ranking paths.
func NewService(db *gorm.DB, dedup *ranking.DedupWindow, leaderboard *ranking.Leaderboard, notifier *notifications.Service) *Service {
	return &Service{
		db:          db,
		dedup:       dedup,
		leaderboard: leaderboard,
		notifier:    notifier,
	}
}

// ToggleLike flips userID's membership in the post's liker set and returns
// the new state. The row is locked for the duration of the flip, so two
// concurrent toggles for the same post serialize instead of both reading the
// same stale set. like_count is recomputed from the set size on every call,
// which keeps the counter == set-size invariant by construction.
//
// Only the like path touches the dedup window and leaderboard; an unlike
// leaves both untouched and the day's accumulated score never decreases.
func (s *Service) ToggleLike(ctx context.Context, postID, userID string) (bool, *models.Post, error) {
	var post models.Post
	var liked bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&post, "id = ?", postID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		if err != nil {
			return fmt.Errorf("load post: %w", err)
		}

		if post.LikedUserIDs.Contains(userID) {
			post.LikedUserIDs = post.LikedUserIDs.Without(userID)
			liked = false
		} else {
			post.LikedUserIDs = append(post.LikedUserIDs, userID)
			liked = true
		}
		post.LikeCount = len(post.LikedUserIDs)

		return tx.Model(&models.Post{}).
			Where("id = ?", post.ID).
			Updates(map[string]interface{}{
				"liked_user_ids": post.LikedUserIDs,
				"like_count":     post.LikeCount,
			}).Error
	})
	if err != nil {
		return false, nil, err
	}

	if liked {
		metrics.Get().LikeTogglesTotal.WithLabelValues("like").Inc()
		s.recordLikeEvent(ctx, &post, userID)
	} else {
		metrics.Get().LikeTogglesTotal.WithLabelValues("unlike").Inc()
	}

	return liked, &post, nil
}

// recordLikeEvent runs the ranking side of a like. The post mutation has
// already committed; a cache outage here is logged loudly but does not undo
// the like itself.
func (s *Service) recordLikeEvent(ctx context.Context, post *models.Post, userID string) {
	isNew, err := s.dedup.MarkIfAbsent(ctx, post.ID, userID)
	if err != nil {
		logger.Log.Error("dedup window unavailable, like not scored",
			logger.WithPostID(post.ID),
			logger.WithUserID(userID),
			zap.Error(err),
		)
		metrics.Get().RankingErrorsTotal.Inc()
		return
	}
	if !isNew {
		metrics.Get().DedupHitsTotal.Inc()
		return
	}

	if err := s.leaderboard.IncrementScore(ctx, post.ID); err != nil {
		logger.Log.Error("leaderboard update failed",
			logger.WithPostID(post.ID),
			zap.Error(err),
		)
		metrics.Get().RankingErrorsTotal.Inc()
		return
	}
	metrics.Get().RankingEventsTotal.Inc()

	// No push for liking your own post
	if s.notifier == nil || post.UserID == userID {
		return
	}

	var liker models.User
	if err := s.db.WithContext(ctx).Select("nickname").First(&liker, "id = ?", userID).Error; err != nil {
		logger.WarnWithFields("failed to load liker for notification", err)
		return
	}

	authorID, postTitle, postID := post.UserID, post.Title, post.ID
	nickname := liker.Nickname
	go func() {
		// Detached from the request: the response does not wait on FCM
		nctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.notifier.NotifyLike(nctx, authorID, nickname, postID, postTitle)
	}()
}

// TopPosts resolves leaderboard entries to posts, preserving rank order.
// Entries whose posts were deleted since they were scored are skipped.
func (s *Service) TopPosts(ctx context.Context, n int) ([]RankedPost, error) {
	entries, err := s.leaderboard.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.PostID
	}

	var posts []models.Post
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("load ranked posts: %w", err)
	}
	byID := make(map[string]*models.Post, len(posts))
	for i := range posts {
		byID[posts[i].ID] = &posts[i]
	}

	ranked := make([]RankedPost, 0, len(entries))
	for _, e := range entries {
		post, ok := byID[e.PostID]
		if !ok {
			continue
		}
		ranked = append(ranked, RankedPost{Post: *post, Score: e.Score})
	}
	return ranked, nil
}

// RankedPost pairs a post with its same-day like score.
type RankedPost struct {
	Post  models.Post
	Score int64
}
