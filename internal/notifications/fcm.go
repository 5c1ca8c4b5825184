// Package notifications delivers best-effort FCM pushes for like and comment
// events. Delivery is at-most-once: failures are logged and never surfaced to
// the request that triggered them.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kawaii-gallery/backend/internal/logger"
	"github.com/kawaii-gallery/backend/internal/metrics"
	"github.com/kawaii-gallery/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const fcmSendURL = "https://fcm.googleapis.com/fcm/send"

// Service sends push notifications to a user's registered devices.
type Service struct {
	db         *gorm.DB
	httpClient *http.Client
	serverKey  string
	sendURL    string
}

// NewService creates the FCM sender. With an empty server key the service is
// a no-op that only logs, so local development works without FCM credentials.
func NewService(db *gorm.DB, serverKey string) *Service {
	return &Service{
		db: db,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		serverKey: serverKey,
		sendURL:   fcmSendURL,
	}
}

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NotifyLike pushes a "new like" notification to the post author's devices.
func (s *Service) NotifyLike(ctx context.Context, authorID, likerNickname, postID, postTitle string) {
	s.send(ctx, authorID, postID, fcmNotification{
		Title: "좋아요!",
		Body:  fmt.Sprintf("'%s'님이 당신의 게시글 '%s'을(를) 좋아합니다.", likerNickname, postTitle),
	})
}

// NotifyComment pushes a "new comment" notification to the post author's devices.
func (s *Service) NotifyComment(ctx context.Context, authorID, commenterNickname, postID, postTitle string) {
	s.send(ctx, authorID, postID, fcmNotification{
		Title: "댓글!",
		Body:  fmt.Sprintf("'%s'님이 당신의 게시글 '%s'에 댓글을 달았습니다.", commenterNickname, postTitle),
	})
}

func (s *Service) send(ctx context.Context, userID, postID string, notification fcmNotification) {
	var tokens []models.FCMToken
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		logger.Log.Warn("failed to load FCM tokens",
			logger.WithUserID(userID),
			zap.Error(err),
		)
		return
	}
	if len(tokens) == 0 {
		logger.Log.Debug("no FCM tokens registered", logger.WithUserID(userID))
		return
	}

	if s.serverKey == "" {
		logger.Log.Debug("FCM disabled, skipping push",
			logger.WithUserID(userID),
			zap.String("title", notification.Title),
		)
		return
	}

	for _, token := range tokens {
		if err := s.sendToToken(ctx, token.Token, postID, notification); err != nil {
			logger.Log.Warn("failed to send FCM notification",
				logger.WithUserID(userID),
				zap.String("device_type", token.DeviceType),
				zap.Error(err),
			)
			metrics.Get().NotificationsTotal.WithLabelValues("error").Inc()
			continue
		}
		metrics.Get().NotificationsTotal.WithLabelValues("sent").Inc()
		logger.Log.Debug("FCM notification sent",
			logger.WithUserID(userID),
			zap.String("device_type", token.DeviceType),
		)
	}
}

func (s *Service) sendToToken(ctx context.Context, token, postID string, notification fcmNotification) error {
	payload, err := json.Marshal(fcmMessage{
		To:           token,
		Notification: notification,
		Data:         map[string]string{"post_id": postID},
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sendURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "key="+s.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fcm responded %d", resp.StatusCode)
	}
	return nil
}
