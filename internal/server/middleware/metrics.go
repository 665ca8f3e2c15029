package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hihitutor/internal/pkg/metrics"
)

// Metrics 记录请求数与耗时，按路由模板聚合
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
