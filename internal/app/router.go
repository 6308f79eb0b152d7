package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "evol-ledger-backend/internal/docs"

	apperrors "evol-ledger-backend/internal/common/errors"
	"evol-ledger-backend/internal/common/middleware"
	adminhttp "evol-ledger-backend/internal/features/admin/delivery/http"
	rankinghttp "evol-ledger-backend/internal/features/ranking/delivery/http"
	rewardhttp "evol-ledger-backend/internal/features/reward/delivery/http"
)

const serviceName = "evol-ledger-backend"

// @title           Evolution Ledger API
// @version         1.0
// @description     Reward ledger for the Telegram Mini App: periodic claims, referrals, tasks, wallets and tier leaderboards. User endpoints require init_data authentication.

// @BasePath  /api/v1

// @securityDefinitions.apikey TelegramInitData
// @in header
// @name init_data
// @description Telegram Mini App init_data string for authentication

// @tag.name users
// @tag.description Profile and wallet

// @tag.name rewards
// @tag.description Periodic claims charged against tier pools

// @tag.name referrals
// @tag.description Referral codes

// @tag.name tasks
// @tag.description One-time task rewards

// @tag.name ranking
// @tag.description Global rank and tier leaderboards

// @tag.name admin
// @tag.description Ledger statistics, export and pool refill

// NewRouter builds the gin engine with middleware, probes and API routes.
func NewRouter(c *Container) *gin.Engine {
	if !c.Config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger("/health", "/live", "/ready", "/metrics"))
	router.Use(middleware.Errors())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{c.Config.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "init_data"}
	router.Use(cors.New(corsConfig))

	registerProbes(router, c)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.TelegramInitData(c.Config.Telegram.BotToken, c.Config.Telegram.InitDataTTL))
	v1.Use(middleware.RequireAuth())
	v1.Use(middleware.SyncProfile(c.Rewards))

	rewardhttp.NewRewardHandler(c.Rewards).RegisterRoutes(v1)
	rankinghttp.NewRankingHandler(c.Ranking).RegisterRoutes(v1)
	adminhttp.NewAdminHandler(c.Admin, c.Config.IsAdmin).RegisterRoutes(v1)

	router.NoRoute(func(ctx *gin.Context) {
		_ = ctx.Error(apperrors.NewNotFoundError("Route", ctx.Request.URL.Path))
	})

	return router
}

func registerProbes(router *gin.Engine, c *Container) {
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
			"backend":   c.Config.Ledger.Backend,
		})
	})

	router.GET("/live", func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	router.GET("/ready", func(ctx *gin.Context) {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()

		if err := c.Ping(pingCtx); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   c.Config.Ledger.Backend + " unavailable",
				"details": err.Error(),
			})
			return
		}

		ctx.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
