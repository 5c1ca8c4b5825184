package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kawaii-gallery/backend/internal/logger"
	"github.com/kawaii-gallery/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// KakaoUserInfo is the subset of the kapi.kakao.com/v2/user/me response we use
type KakaoUserInfo struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname string `json:"nickname"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

// getKakaoUserInfo exchanges the authorization code for an access token and
// fetches the account's profile.
func (s *Service) getKakaoUserInfo(ctx context.Context, code string) (*KakaoUserInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	token, err := s.kakaoConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := s.kakaoConfig.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("user info request returned %d: %s", resp.StatusCode, body)
	}

	var userInfo KakaoUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	if userInfo.KakaoAccount.Email == "" {
		return nil, errors.New("email not provided by Kakao account")
	}

	return &userInfo, nil
}

// findOrCreateUser unifies accounts by email: a returning Kakao account gets
// its existing user, a new one gets a fresh user record.
func (s *Service) findOrCreateUser(ctx context.Context, info *KakaoUserInfo) (*models.User, error) {
	kakaoID := strconv.FormatInt(info.ID, 10)

	var user models.User
	err := s.db.WithContext(ctx).
		Where("kakao_id = ? OR LOWER(email) = LOWER(?)", kakaoID, info.KakaoAccount.Email).
		First(&user).Error
	if err == nil {
		if user.KakaoID == nil {
			// Same email, first Kakao login: link the provider ID
			if err := s.db.WithContext(ctx).Model(&user).Update("kakao_id", kakaoID).Error; err != nil {
				return nil, fmt.Errorf("link kakao account: %w", err)
			}
			user.KakaoID = &kakaoID
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	nickname := info.KakaoAccount.Profile.Nickname
	if nickname == "" {
		nickname = "user-" + uuid.New().String()[:8]
	}

	user = models.User{
		Email:    info.KakaoAccount.Email,
		Nickname: nickname,
		KakaoID:  &kakaoID,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// Nickname collision with another account: retry once with a suffix
		user.Nickname = nickname + "-" + uuid.New().String()[:4]
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	}

	logger.Log.Info("new user registered via Kakao",
		logger.WithUserID(user.ID),
		zap.String("nickname", user.Nickname),
	)
	return &user, nil
}
