package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"hihitutor/internal/pkg/apperr"
	httputil "hihitutor/internal/pkg/http"
)

// errPanic 对调用方只返回通用错误
var errPanic = apperr.Internal(nil)

// Recovery 捕获 panic 并返回 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				zerolog.Ctx(c.Request.Context()).Error().
					Interface("panic", rec).
					Str("route", c.FullPath()).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				httputil.Abort(c, errPanic)
			}
		}()
		c.Next()
	}
}
