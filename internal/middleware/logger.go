package middleware

import (
	"net/http"
	"time"

	"skystream/internal/logging"
	"skystream/internal/response"

	"github.com/gin-gonic/gin"
)

// RequestLogger пишет одну строку на запрос. Query не логируется.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logging.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = logging.Error()
		case status >= http.StatusBadRequest:
			event = logging.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Int("size", c.Writer.Size()).
			Msg("HTTP request")
	}
}

// Recovery превращает панику обработчика в стандартный 500-ответ.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Handler panicked")
		response.Error(c, http.StatusInternalServerError, response.MsgInternalError)
	})
}
