package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kawaii-gallery/backend/internal/dto"
	"github.com/kawaii-gallery/backend/internal/logger"
	"github.com/kawaii-gallery/backend/internal/ranking"
	"github.com/kawaii-gallery/backend/internal/util"
)

// GetDailyRanking returns today's most-liked posts, highest score first.
// The underlying board returns up to n+1 entries for a query of n; the
// response exposes exactly what the board returned.
// GET /api/v1/ranking?n=10
func (h *Handlers) GetDailyRanking(c *gin.Context) {
	viewerID := c.GetString("user_id")

	n, err := strconv.Atoi(c.DefaultQuery("n", "10"))
	if err != nil || n < 1 || n > 100 {
		n = 10
	}

	ranked, err := h.engagement.TopPosts(c.Request.Context(), n)
	if errors.Is(err, ranking.ErrLeaderboardEmpty) {
		util.RespondNotFound(c, "ranking")
		return
	}
	if err != nil {
		logger.ErrorWithFields("failed to load ranking", err)
		util.RespondInternalError(c, "Failed to load ranking")
		return
	}

	entries := make([]dto.RankingEntryResponse, len(ranked))
	for i := range ranked {
		entries[i] = dto.RankingEntryResponse{
			Rank:  i + 1,
			Score: ranked[i].Score,
			Post:  *dto.ToPostResponse(&ranked[i].Post, viewerID),
		}
	}

	c.JSON(http.StatusOK, dto.RankingResponse{Entries: entries})
}
