package config

import (
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// KakaoEndpoint is Kakao's OAuth 2.0 endpoint.
var KakaoEndpoint = oauth2.Endpoint{
	AuthURL:  "https://kauth.kakao.com/oauth/authorize",
	TokenURL: "https://kauth.kakao.com/oauth/token",
}

// KakaoUserInfoURL is where the access token is exchanged for profile data.
const KakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"

// OAuthConfig holds OAuth provider configurations
type OAuthConfig struct {
	KakaoConfig *oauth2.Config
}

// LoadOAuthConfig loads OAuth configuration from environment variables.
// REQUIRED environment variables:
// - KAKAO_CLIENT_ID: Kakao REST API key
// - KAKAO_CLIENT_SECRET: Kakao client secret
// Optional:
// - API_BASE_URL: base URL for the OAuth callback (default http://localhost:8080)
func LoadOAuthConfig() (*OAuthConfig, error) {
	kakaoClientID := os.Getenv("KAKAO_CLIENT_ID")
	if kakaoClientID == "" {
		return nil, fmt.Errorf("KAKAO_CLIENT_ID environment variable not set")
	}

	kakaoClientSecret := os.Getenv("KAKAO_CLIENT_SECRET")
	if kakaoClientSecret == "" {
		return nil, fmt.Errorf("KAKAO_CLIENT_SECRET environment variable not set")
	}

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &OAuthConfig{
		KakaoConfig: &oauth2.Config{
			ClientID:     kakaoClientID,
			ClientSecret: kakaoClientSecret,
			RedirectURL:  baseURL + "/api/v1/auth/kakao/callback",
			Scopes:       []string{"account_email", "profile_nickname"},
			Endpoint:     KakaoEndpoint,
		},
	}, nil
}
