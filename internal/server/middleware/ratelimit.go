package middleware

import (
	"github.com/gin-gonic/gin"

	"hihitutor/internal/pkg/apperr"
	httputil "hihitutor/internal/pkg/http"
	"hihitutor/internal/pkg/ratelimit"
)

var errTooManyRequests = apperr.TooManyRequests(42900, "请求过于频繁，请稍后再试")

// RateLimit 按客户端IP限流
func RateLimit(k *ratelimit.Keyed) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !k.Allow(c.ClientIP()) {
			httputil.Abort(c, errTooManyRequests)
			return
		}
		c.Next()
	}
}
