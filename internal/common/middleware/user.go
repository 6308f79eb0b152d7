package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"evol-ledger-backend/internal/common/logger"
)

// ProfileToucher stores a user's display name on their ledger record.
type ProfileToucher interface {
	TouchProfile(ctx context.Context, userID, displayName string, now time.Time) error
}

// DisplayName picks the leaderboard name for a Telegram user.
func DisplayName(u initdata.User) string {
	if u.Username != "" {
		return u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SyncProfile refreshes the caller's display name after the handler ran, so
// the first claim of a new user already carries it.
func SyncProfile(profiles ProfileToucher) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		user, ok := CurrentUser(c)
		if !ok {
			return
		}
		userID, _ := CurrentUserID(c)
		if err := profiles.TouchProfile(c.Request.Context(), userID, DisplayName(user), time.Now()); err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to sync display name")
		}
	}
}
