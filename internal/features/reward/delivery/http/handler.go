package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"evol-ledger-backend/internal/common/errors"
	"evol-ledger-backend/internal/common/middleware"
	"evol-ledger-backend/internal/common/validation"
	"evol-ledger-backend/internal/features/reward/service"
)

// ReferralRequest is the body of POST /users/me/referral.
type ReferralRequest struct {
	Code string `json:"code" binding:"required" example:"REF123456"`
}

// WalletRequest is the body of PUT /users/me/wallet.
type WalletRequest struct {
	Address string `json:"address" validate:"required,wallet" example:"gxr1qpzry9x8gf2tvdw0"`
}

// ReferralCodeResponse is the body of GET /users/me/referral.
type ReferralCodeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RewardHandler struct {
	service service.RewardService
	now     func() time.Time
}

func NewRewardHandler(service service.RewardService) *RewardHandler {
	return &RewardHandler{
		service: service,
		now:     time.Now,
	}
}

func (h *RewardHandler) RegisterRoutes(router *gin.RouterGroup) {
	me := router.Group("/users/me")
	{
		me.GET("", h.getProfile)
		me.POST("/claim", h.claim)
		me.GET("/referral", h.getReferralCode)
		me.POST("/referral", h.applyReferral)
		me.PUT("/wallet", h.connectWallet)
		me.GET("/tasks", h.listTasks)
		me.POST("/tasks/:category/:index/complete", h.completeTask)
	}
}

func currentUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		_ = c.Error(errors.NewUnauthorizedError("Telegram init data required"))
	}
	return userID, ok
}

// @Summary Get current user profile
// @Description Points, evolution tier, badge, progress, rank, claim availability and referral state of the caller.
// @Tags users
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.Profile
// @Failure 401 {object} middleware.ErrorResponse
// @Router /users/me [get]
func (h *RewardHandler) getProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	profile, err := h.service.Profile(c.Request.Context(), userID, h.now())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// @Summary Claim the periodic reward
// @Description Credits the claim reward once per cooldown window, charged against the caller's tier pool.
// @Tags rewards
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.ClaimResult
// @Failure 409 {object} middleware.ErrorResponse "Tier pool exhausted"
// @Failure 429 {object} middleware.ErrorResponse "Cooldown active"
// @Router /users/me/claim [post]
func (h *RewardHandler) claim(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	res, err := h.service.Claim(c.Request.Context(), userID, h.now())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Get own referral code
// @Tags referrals
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} ReferralCodeResponse
// @Router /users/me/referral [get]
func (h *RewardHandler) getReferralCode(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	code := h.service.ReferralCode(userID)
	c.JSON(http.StatusOK, ReferralCodeResponse{Code: code, Message: "Your referral code: " + code})
}

// @Summary Redeem a referral code
// @Description Credits the referral reward to the caller and the code owner, once per caller.
// @Tags referrals
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param request body ReferralRequest true "Referral code"
// @Success 200 {object} models.ReferralResult
// @Failure 400 {object} middleware.ErrorResponse "Invalid or own code"
// @Failure 409 {object} middleware.ErrorResponse "Referral already applied"
// @Router /users/me/referral [post]
func (h *RewardHandler) applyReferral(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req ReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewInvalidReferralCodeError(req.Code).WithDetail("reason", err.Error()))
		return
	}
	res, err := h.service.ApplyReferral(c.Request.Context(), userID, req.Code, h.now())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Connect a wallet
// @Tags users
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param request body WalletRequest true "Wallet address"
// @Success 200 {object} models.WalletResult
// @Failure 400 {object} middleware.ErrorResponse "Invalid wallet format"
// @Router /users/me/wallet [put]
func (h *RewardHandler) connectWallet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req WalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewValidationError("address", err.Error()))
		return
	}
	if err := validation.Struct(req); err != nil {
		_ = c.Error(errors.NewInvalidWalletError(req.Address))
		return
	}
	res, err := h.service.ConnectWallet(c.Request.Context(), userID, req.Address, h.now())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary List tasks
// @Tags tasks
// @Produce json
// @Security TelegramInitData
// @Success 200 {array} models.TaskView
// @Router /users/me/tasks [get]
func (h *RewardHandler) listTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tasks, err := h.service.Tasks(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// @Summary Complete a task
// @Tags tasks
// @Produce json
// @Security TelegramInitData
// @Param category path string true "Task category" Enums(original, partnership, collaborator)
// @Param index path int true "Task index within the category"
// @Success 200 {object} models.TaskResult
// @Failure 404 {object} middleware.ErrorResponse "Unknown task"
// @Failure 409 {object} middleware.ErrorResponse "Task already completed"
// @Router /users/me/tasks/{category}/{index}/complete [post]
func (h *RewardHandler) completeTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	category := c.Param("category")
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		_ = c.Error(errors.NewValidationError("index", "must be an integer"))
		return
	}
	res, err := h.service.CompleteTask(c.Request.Context(), userID, category, index, h.now())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}
