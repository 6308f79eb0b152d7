package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"evol-ledger-backend/internal/common/errors"
)

const ctxKeyUser = "user"

// SetUser stores the authenticated Telegram user on the request.
func SetUser(c *gin.Context, user initdata.User) {
	c.Set(ctxKeyUser, user)
}

// CurrentUser returns the Telegram user set by TelegramInitData.
func CurrentUser(c *gin.Context) (initdata.User, bool) {
	v, exists := c.Get(ctxKeyUser)
	if !exists {
		return initdata.User{}, false
	}
	user, ok := v.(initdata.User)
	return user, ok && user.ID != 0
}

// CurrentUserID returns the ledger id of the authenticated user.
func CurrentUserID(c *gin.Context) (string, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		return "", false
	}
	return strconv.FormatInt(user.ID, 10), true
}

// RequireAuth rejects requests without an authenticated Telegram user.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			sendErrorResponse(c, errors.NewUnauthorizedError("Telegram init data required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin allows only users for which isAdmin returns true.
func RequireAdmin(isAdmin func(telegramID int64) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			sendErrorResponse(c, errors.NewUnauthorizedError("Telegram init data required"))
			c.Abort()
			return
		}
		if !isAdmin(user.ID) {
			sendErrorResponse(c, errors.NewForbiddenError("admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
