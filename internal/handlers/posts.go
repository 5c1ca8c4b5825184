package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kawaii-gallery/backend/internal/database"
	"github.com/kawaii-gallery/backend/internal/dto"
	"github.com/kawaii-gallery/backend/internal/engagement"
	"github.com/kawaii-gallery/backend/internal/logger"
	"github.com/kawaii-gallery/backend/internal/models"
	"github.com/kawaii-gallery/backend/internal/util"
	"go.uber.org/zap"
)

// CreatePost creates a new post and credits the author's feather reward
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	post := models.Post{
		UserID:       user.ID,
		Nickname:     user.Nickname,
		Title:        req.Title,
		Content:      req.Content,
		Tags:         req.Tags,
		Media:        req.Media,
		LikedUserIDs: models.StringArray{},
	}

	if err := database.DB.WithContext(c.Request.Context()).Create(&post).Error; err != nil {
		logger.ErrorWithFields("failed to create post", err)
		util.RespondInternalError(c, "Failed to create post")
		return
	}

	// Posting earns feather. The post itself stands even if the credit fails.
	if _, err := h.ledger.Increment(c.Request.Context(), user.ID, h.cfg.FeatherPostReward); err != nil {
		logger.Log.Warn("failed to credit post reward",
			logger.WithUserID(user.ID),
			logger.WithPostID(post.ID),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusCreated, dto.ToPostResponse(&post, user.ID))
}

// GetPost returns one post
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	postID := c.Param("id")
	viewerID := c.GetString("user_id")

	var post models.Post
	if err := database.DB.WithContext(c.Request.Context()).First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	c.JSON(http.StatusOK, dto.ToPostResponse(&post, viewerID))
}

// ListPosts returns posts newest first with limit/offset paging
// GET /api/v1/posts?limit=20&offset=0
func (h *Handlers) ListPosts(c *gin.Context) {
	viewerID := c.GetString("user_id")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	var posts []models.Post
	if err := database.DB.WithContext(c.Request.Context()).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		logger.ErrorWithFields("failed to list posts", err)
		util.RespondInternalError(c, "Failed to list posts")
		return
	}

	responses := make([]*dto.PostResponse, len(posts))
	for i := range posts {
		responses[i] = dto.ToPostResponse(&posts[i], viewerID)
	}
	c.JSON(http.StatusOK, gin.H{"posts": responses, "limit": limit, "offset": offset})
}

// UpdatePost edits a post's title/content/tags (owner only)
// PUT /api/v1/posts/:id
func (h *Handlers) UpdatePost(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var post models.Post
	if err := database.DB.WithContext(c.Request.Context()).First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if post.UserID != userID {
		util.RespondForbidden(c, "only the author can edit this post")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Tags != nil {
		updates["tags"] = models.StringArray(*req.Tags)
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	if err := database.DB.WithContext(c.Request.Context()).Model(&post).Updates(updates).Error; err != nil {
		logger.ErrorWithFields("failed to update post", err)
		util.RespondInternalError(c, "Failed to update post")
		return
	}

	c.JSON(http.StatusOK, dto.ToPostResponse(&post, userID))
}

// DeletePost removes a post (owner only)
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.WithContext(c.Request.Context()).First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if post.UserID != userID {
		util.RespondForbidden(c, "only the author can delete this post")
		return
	}

	if err := database.DB.WithContext(c.Request.Context()).Delete(&post).Error; err != nil {
		logger.ErrorWithFields("failed to delete post", err)
		util.RespondInternalError(c, "Failed to delete post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "post_id": postID})
}

// ToggleLike flips the caller's like on a post
// POST /api/v1/posts/:id/like
func (h *Handlers) ToggleLike(c *gin.Context) {
	postID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	liked, post, err := h.engagement.ToggleLike(c.Request.Context(), postID, userID)
	if errors.Is(err, engagement.ErrPostNotFound) {
		util.RespondNotFound(c, "post")
		return
	}
	if err != nil {
		logger.Log.Error("toggle like failed",
			logger.WithPostID(postID),
			logger.WithUserID(userID),
			zap.Error(err),
		)
		util.RespondInternalError(c, "Failed to toggle like")
		return
	}

	c.JSON(http.StatusOK, dto.ToggleLikeResponse{
		Liked: liked,
		Post:  *dto.ToPostResponse(post, userID),
	})
}
