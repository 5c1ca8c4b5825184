package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kawaii-gallery/backend/internal/models"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidToken = errors.New("invalid token")
)

// Service handles Kakao login and JWT issuance/validation
type Service struct {
	db          *gorm.DB
	jwtSecret   []byte
	jwtExpiry   time.Duration
	kakaoConfig *oauth2.Config
	userInfoURL string
}

// NewService creates a new authentication service
func NewService(db *gorm.DB, jwtSecret []byte, jwtExpiry time.Duration, kakaoConfig *oauth2.Config, userInfoURL string) *Service {
	return &Service{
		db:          db,
		jwtSecret:   jwtSecret,
		jwtExpiry:   jwtExpiry,
		kakaoConfig: kakaoConfig,
		userInfoURL: userInfoURL,
	}
}

// AuthResponse represents authentication response
type AuthResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// GetKakaoOAuthURL returns the Kakao authorization URL
func (s *Service) GetKakaoOAuthURL(state string) string {
	return s.kakaoConfig.AuthCodeURL(state)
}

// HandleKakaoCallback exchanges the authorization code, resolves the Kakao
// account, finds or creates the matching user by email, and issues a JWT.
func (s *Service) HandleKakaoCallback(ctx context.Context, code string) (*AuthResponse, error) {
	userInfo, err := s.getKakaoUserInfo(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get Kakao user info: %w", err)
	}

	user, err := s.findOrCreateUser(ctx, userInfo)
	if err != nil {
		return nil, err
	}

	return s.generateToken(user)
}

// generateToken issues a signed JWT for the user
func (s *Service) generateToken(user *models.User) (*AuthResponse, error) {
	expiresAt := time.Now().Add(s.jwtExpiry)

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		Token:     tokenString,
		User:      *user,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a JWT token and returns the current user record
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	// Fetch fresh user data
	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	return &user, nil
}
