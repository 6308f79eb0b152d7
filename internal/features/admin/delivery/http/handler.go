package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"evol-ledger-backend/internal/common/errors"
	"evol-ledger-backend/internal/common/middleware"
	"evol-ledger-backend/internal/features/admin/service"
)

type AdminHandler struct {
	service service.AdminService
	isAdmin func(telegramID int64) bool
}

func NewAdminHandler(service service.AdminService, isAdmin func(telegramID int64) bool) *AdminHandler {
	return &AdminHandler{service: service, isAdmin: isAdmin}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	admin.Use(middleware.RequireAdmin(h.isAdmin))
	{
		admin.GET("/stats", h.getStats)
		admin.GET("/export", h.export)
		admin.POST("/pools/:tier/reset", h.resetPool)
	}
}

// @Summary Ledger statistics
// @Description Users, distributed points and per-tier pool usage (admin only).
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.Stats
// @Failure 403 {object} middleware.ErrorResponse
// @Router /admin/stats [get]
func (h *AdminHandler) getStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Export users
// @Description Snapshot rows of user id, points and wallet (admin only).
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Success 200 {array} models.ExportRow
// @Failure 403 {object} middleware.ErrorResponse
// @Router /admin/export [get]
func (h *AdminHandler) export(c *gin.Context) {
	rows, err := h.service.Export(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// @Summary Refill a tier pool
// @Description Sets the pool's used total back to zero (admin only).
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Param tier path int true "Tier level 1-7"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} middleware.ErrorResponse "Unknown tier"
// @Router /admin/pools/{tier}/reset [post]
func (h *AdminHandler) resetPool(c *gin.Context) {
	level, err := strconv.Atoi(c.Param("tier"))
	if err != nil {
		_ = c.Error(errors.NewValidationError("tier", "must be an integer between 1 and 7"))
		return
	}
	if err := h.service.ResetPool(c.Request.Context(), level); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tier": level, "message": "Pool refilled"})
}
