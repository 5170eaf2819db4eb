package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request in place of gin.Logger.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if caller, ok := CallerFromContext(c); ok {
			attrs = append(attrs, "caller_id", caller.ID, "role", caller.Role)
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.ErrorContext(c.Request.Context(), "request failed", append(attrs, "errors", c.Errors.String())...)
		case status >= 400:
			logger.WarnContext(c.Request.Context(), "request rejected", append(attrs, "errors", c.Errors.String())...)
		default:
			logger.InfoContext(c.Request.Context(), "request served", attrs...)
		}
	}
}
