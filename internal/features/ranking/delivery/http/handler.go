package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"evol-ledger-backend/internal/common/errors"
	"evol-ledger-backend/internal/common/middleware"
	"evol-ledger-backend/internal/features/ranking/service"
)

type RankingHandler struct {
	service service.RankingService
}

func NewRankingHandler(service service.RankingService) *RankingHandler {
	return &RankingHandler{service: service}
}

func (h *RankingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/users/me/rank", h.getRank)
	router.GET("/leaderboard", h.getLeaderboard)
}

// @Summary Get own rank
// @Description Global position by points, ties broken by user id.
// @Tags ranking
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.Position
// @Failure 404 {object} middleware.ErrorResponse "User has no ledger record yet"
// @Router /users/me/rank [get]
func (h *RankingHandler) getRank(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		_ = c.Error(errors.NewUnauthorizedError("Telegram init data required"))
		return
	}
	pos, err := h.service.Position(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, pos)
}

// @Summary Tier leaderboard
// @Tags ranking
// @Produce json
// @Security TelegramInitData
// @Param tier query int true "Tier level 1-7"
// @Param limit query int false "Maximum entries (default 100, max 1000)"
// @Success 200 {object} models.Leaderboard
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "Unknown tier"
// @Router /leaderboard [get]
func (h *RankingHandler) getLeaderboard(c *gin.Context) {
	level, err := strconv.Atoi(c.Query("tier"))
	if err != nil {
		_ = c.Error(errors.NewValidationError("tier", "must be an integer between 1 and 7"))
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			_ = c.Error(errors.NewValidationError("limit", "must be a positive integer"))
			return
		}
	}

	board, err := h.service.Leaderboard(c.Request.Context(), level, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, board)
}
