package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"evol-ledger-backend/internal/common/errors"
	"evol-ledger-backend/internal/common/logger"
)

const headerInitData = "init_data"

// TelegramInitData validates the signed init data header with the bot token
// and stores the Telegram user on the request. ttl 0 disables the expiry check.
func TelegramInitData(botToken string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		initDataQuery := c.GetHeader(headerInitData)
		if initDataQuery == "" {
			sendErrorResponse(c, errors.NewUnauthorizedError("Telegram init data required"))
			c.Abort()
			return
		}

		if botToken == "" {
			logger.Error().Msg("BOT_TOKEN not set, cannot validate init data")
			sendErrorResponse(c, errors.New(errors.ErrCodeInternal, "Server configuration error"))
			c.Abort()
			return
		}

		if err := initdata.Validate(initDataQuery, botToken, ttl); err != nil {
			logger.Debug().Err(err).Msg("Init data validation failed")
			sendErrorResponse(c, errors.NewUnauthorizedError("invalid init data: "+err.Error()))
			c.Abort()
			return
		}

		parsed, err := initdata.Parse(initDataQuery)
		if err != nil {
			sendErrorResponse(c, errors.New(errors.ErrCodeBadRequest, "Failed to parse init data").WithDetail("reason", err.Error()))
			c.Abort()
			return
		}

		SetUser(c, parsed.User)
		c.Next()
	}
}
