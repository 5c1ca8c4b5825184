package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kawaii-gallery/backend/internal/auth"
	"github.com/kawaii-gallery/backend/internal/dto"
	"github.com/kawaii-gallery/backend/internal/logger"
	"github.com/kawaii-gallery/backend/internal/util"
)

// KakaoLogin redirects the browser to Kakao's authorization page
// GET /api/v1/auth/kakao
func (h *Handlers) KakaoLogin(c *gin.Context) {
	state := uuid.New().String()
	c.Redirect(http.StatusFound, h.auth.GetKakaoOAuthURL(state))
}

// KakaoCallback completes the Kakao login and returns a JWT
// GET /api/v1/auth/kakao/callback?code=...
func (h *Handlers) KakaoCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		util.RespondBadRequest(c, "authorization code not provided")
		return
	}

	resp, err := h.auth.HandleKakaoCallback(c.Request.Context(), code)
	if err != nil {
		logger.ErrorWithFields("Kakao login failed", err)
		util.RespondUnauthorized(c, "Kakao login failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user
// GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// AuthMiddleware validates the Bearer token and loads the current user into
// the request context.
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			util.RespondUnauthorized(c, "no token provided")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		user, err := h.auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				util.RespondUnauthorized(c, "user no longer exists")
			} else {
				util.RespondUnauthorized(c, "invalid token")
			}
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
