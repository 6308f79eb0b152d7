package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"evol-ledger-backend/internal/common/logger"
)

// Logger writes one structured line per request. skip lists paths that are
// not logged (health probes, metrics scrapes).
func Logger(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		if _, ok := skipped[c.Request.URL.Path]; ok {
			return
		}

		event := logger.Info()
		if c.Writer.Status() >= 500 {
			event = logger.Error()
		}
		event = event.
			Str("request_id", getRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Int("body_size", c.Writer.Size())
		if userID, ok := CurrentUserID(c); ok {
			event = event.Str("user_id", userID)
		}
		event.Msg("Request processed")
	}
}
