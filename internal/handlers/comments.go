package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kawaii-gallery/backend/internal/database"
	"github.com/kawaii-gallery/backend/internal/dto"
	"github.com/kawaii-gallery/backend/internal/feather"
	"github.com/kawaii-gallery/backend/internal/logger"
	"github.com/kawaii-gallery/backend/internal/models"
	"github.com/kawaii-gallery/backend/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateComment creates a comment on a post, spending the commenter's feather
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	postID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var post models.Post
	if err := database.DB.WithContext(c.Request.Context()).First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	// Commenting costs feather; the balance check happens before anything is stored
	if _, err := h.ledger.Decrement(c.Request.Context(), user.ID, h.cfg.FeatherCommentCost); err != nil {
		switch {
		case errors.Is(err, feather.ErrInsufficientFeather):
			util.RespondInsufficientFeather(c)
		case errors.Is(err, feather.ErrUserNotFound):
			util.RespondNotFound(c, "user")
		default:
			logger.ErrorWithFields("feather debit failed", err)
			util.RespondInternalError(c, "Failed to create comment")
		}
		return
	}

	comment := models.Comment{
		PostID:   postID,
		UserID:   user.ID,
		Nickname: user.Nickname,
		Content:  req.Content,
	}

	if err := database.DB.WithContext(c.Request.Context()).Create(&comment).Error; err != nil {
		logger.ErrorWithFields("failed to create comment", err)
		// The debit already happened; give it back
		if _, refundErr := h.ledger.Increment(c.Request.Context(), user.ID, h.cfg.FeatherCommentCost); refundErr != nil {
			logger.Log.Error("failed to refund feather after comment failure",
				logger.WithUserID(user.ID),
				zap.Error(refundErr),
			)
		}
		util.RespondInternalError(c, "Failed to create comment")
		return
	}

	if err := database.DB.Model(&post).UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
		logger.WarnWithFields("failed to increment comment count for post "+postID, err)
	}

	// No push for commenting on your own post
	if h.notifier != nil && post.UserID != user.ID {
		authorID, nickname, title := post.UserID, user.Nickname, post.Title
		go func() {
			nctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			h.notifier.NotifyComment(nctx, authorID, nickname, postID, title)
		}()
	}

	c.JSON(http.StatusCreated, dto.ToCommentResponse(&comment))
}

// ListComments returns a post's comments oldest first
// GET /api/v1/posts/:id/comments
func (h *Handlers) ListComments(c *gin.Context) {
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.WithContext(c.Request.Context()).Select("id").First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	var comments []models.Comment
	if err := database.DB.WithContext(c.Request.Context()).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		logger.ErrorWithFields("failed to list comments", err)
		util.RespondInternalError(c, "Failed to list comments")
		return
	}

	responses := make([]*dto.CommentResponse, len(comments))
	for i := range comments {
		responses[i] = dto.ToCommentResponse(&comments[i])
	}
	c.JSON(http.StatusOK, gin.H{"comments": responses})
}

// DeleteComment removes a comment (comment author only)
// DELETE /api/v1/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	commentID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.WithContext(c.Request.Context()).First(&comment, "id = ?", commentID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}
	if comment.UserID != userID {
		util.RespondForbidden(c, "only the author can delete this comment")
		return
	}

	if err := database.DB.WithContext(c.Request.Context()).Delete(&comment).Error; err != nil {
		logger.ErrorWithFields("failed to delete comment", err)
		util.RespondInternalError(c, "Failed to delete comment")
		return
	}

	if err := database.DB.Model(&models.Post{}).
		Where("id = ? AND comment_count > 0", comment.PostID).
		UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error; err != nil {
		logger.WarnWithFields("failed to decrement comment count for post "+comment.PostID, err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "comment_id": commentID})
}
