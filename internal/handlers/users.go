package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kawaii-gallery/backend/internal/database"
	"github.com/kawaii-gallery/backend/internal/dto"
	"github.com/kawaii-gallery/backend/internal/logger"
	"github.com/kawaii-gallery/backend/internal/models"
	"github.com/kawaii-gallery/backend/internal/util"
	"gorm.io/gorm/clause"
)

// GetUser returns one user's public profile
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := database.DB.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(&user))
}

// UpdateMe updates the caller's profile (currently: nickname)
// PUT /api/v1/users/me
func (h *Handlers) UpdateMe(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if req.Nickname == nil {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	// Nickname must stay unique
	var existing models.User
	err := database.DB.WithContext(c.Request.Context()).
		Where("LOWER(nickname) = LOWER(?) AND id != ?", *req.Nickname, user.ID).
		First(&existing).Error
	if err == nil {
		util.RespondConflict(c, "nickname")
		return
	}

	if err := database.DB.WithContext(c.Request.Context()).
		Model(user).
		Update("nickname", *req.Nickname).Error; err != nil {
		logger.ErrorWithFields("failed to update user", err)
		util.RespondInternalError(c, "Failed to update user")
		return
	}

	// Posts and comments carry the nickname denormalized; keep them in sync
	database.DB.Model(&models.Post{}).Where("user_id = ?", user.ID).UpdateColumn("nickname", *req.Nickname)
	database.DB.Model(&models.Comment{}).Where("user_id = ?", user.ID).UpdateColumn("nickname", *req.Nickname)

	logger.Log.Info("user updated", logger.WithUserID(user.ID))
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// DeleteMe removes the caller's account
// DELETE /api/v1/users/me
func (h *Handlers) DeleteMe(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if err := database.DB.WithContext(c.Request.Context()).Delete(user).Error; err != nil {
		logger.ErrorWithFields("failed to delete user", err)
		util.RespondInternalError(c, "Failed to delete user")
		return
	}

	logger.Log.Info("user deleted", logger.WithUserID(user.ID))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GetFeather returns the caller's feather balance
// GET /api/v1/users/me/feather
func (h *Handlers) GetFeather(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	balance, err := h.ledger.Balance(c.Request.Context(), userID)
	if err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"feather": balance})
}

// RegisterFCMToken registers a device token for push notifications
// POST /api/v1/users/me/fcm-token
func (h *Handlers) RegisterFCMToken(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req dto.RegisterFCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	token := models.FCMToken{
		UserID:     userID,
		Token:      req.FCMToken,
		DeviceType: req.DeviceType,
	}

	// Re-registering an existing token moves it to the current user
	err := database.DB.WithContext(c.Request.Context()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "device_type"}),
		}).
		Create(&token).Error
	if err != nil {
		logger.ErrorWithFields("failed to register FCM token", err)
		util.RespondInternalError(c, "Failed to register token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "registered", "device_type": req.DeviceType})
}
