package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// 探活与抓取指标的请求只在 debug 级别记录
var quietPrefixes = []string{"/health", "/ready", "/metrics", "/swagger/"}

// Logger 访问日志，使用 RequestID 放入 context 的 logger
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		l := zerolog.Ctx(c.Request.Context())

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = l.Error()
		case status >= 400:
			event = l.Warn()
		case isQuiet(c.Request.URL.Path):
			event = l.Debug()
		default:
			event = l.Info()
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		event.
			Str("method", c.Request.Method).
			Str("route", route).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("user_id", c.GetString(UserIDKey)).
			Int("body_size", c.Writer.Size())
		if len(c.Errors) > 0 {
			event.Str("errors", c.Errors.ByType(gin.ErrorTypePrivate).String())
		}
		event.Msg("HTTP request")
	}
}

func isQuiet(path string) bool {
	for _, p := range quietPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
