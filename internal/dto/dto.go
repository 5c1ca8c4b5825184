package dto

import (
	"time"

	"github.com/kawaii-gallery/backend/internal/models"
)

// UserResponse is the public user representation (safe for API responses)
type UserResponse struct {
	ID        string    `json:"id"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	Feather   int       `json:"feather"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateUserRequest for profile updates
type UpdateUserRequest struct {
	Nickname *string `json:"nickname,omitempty" binding:"omitempty,min=1,max=30"`
}

// PostResponse is the post representation returned by every post endpoint
type PostResponse struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	Nickname     string             `json:"nickname"`
	Title        string             `json:"title"`
	Content      string             `json:"content"`
	Tags         []string           `json:"tags"`
	Media        []models.MediaFile `json:"media"`
	LikeCount    int                `json:"like_count"`
	CommentCount int                `json:"comment_count"`
	CreatedAt    time.Time          `json:"created_at"`

	// Liked is set when the viewer is known
	Liked *bool `json:"liked,omitempty"`
}

// CreatePostRequest for post creation
type CreatePostRequest struct {
	Title   string             `json:"title" binding:"required,min=1,max=200"`
	Content string             `json:"content" binding:"required"`
	Tags    []string           `json:"tags"`
	Media   []models.MediaFile `json:"media"`
}

// UpdatePostRequest for post edits
type UpdatePostRequest struct {
	Title   *string   `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// ToggleLikeResponse is the POST /posts/:id/like payload
type ToggleLikeResponse struct {
	Liked bool         `json:"liked"`
	Post  PostResponse `json:"post"`
}

// CommentResponse is the comment representation
type CommentResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Nickname  string    `json:"nickname"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCommentRequest for comment creation
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

// RankingEntryResponse is one leaderboard row with its resolved post
type RankingEntryResponse struct {
	Rank  int          `json:"rank"`
	Score int64        `json:"score"`
	Post  PostResponse `json:"post"`
}

// RankingResponse is the GET /ranking payload
type RankingResponse struct {
	Entries []RankingEntryResponse `json:"entries"`
}

// RegisterFCMTokenRequest registers one device for pushes
type RegisterFCMTokenRequest struct {
	FCMToken   string `json:"fcm_token" binding:"required"`
	DeviceType string `json:"device_type" binding:"required,oneof=android ios"`
}

// ToUserResponse converts models.User to UserResponse (excludes sensitive fields)
func ToUserResponse(user *models.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:        user.ID,
		Nickname:  user.Nickname,
		Email:     user.Email,
		Feather:   user.Feather,
		CreatedAt: user.CreatedAt,
	}
}

// ToPostResponse converts models.Post to PostResponse. viewerID may be empty,
// in which case the Liked field is omitted.
func ToPostResponse(post *models.Post, viewerID string) *PostResponse {
	if post == nil {
		return nil
	}
	resp := &PostResponse{
		ID:           post.ID,
		UserID:       post.UserID,
		Nickname:     post.Nickname,
		Title:        post.Title,
		Content:      post.Content,
		Tags:         post.Tags,
		Media:        post.Media,
		LikeCount:    post.LikeCount,
		CommentCount: post.CommentCount,
		CreatedAt:    post.CreatedAt,
	}
	if viewerID != "" {
		liked := post.LikedUserIDs.Contains(viewerID)
		resp.Liked = &liked
	}
	return resp
}

// ToCommentResponse converts models.Comment to CommentResponse
func ToCommentResponse(comment *models.Comment) *CommentResponse {
	if comment == nil {
		return nil
	}
	return &CommentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		UserID:    comment.UserID,
		Nickname:  comment.Nickname,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}
