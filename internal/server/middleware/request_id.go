package middleware

import (
	"github.com/gin-gonic/gin"

	"hihitutor/internal/pkg/id"
	"hihitutor/internal/pkg/logger"
)

const (
	// RequestIDHeader 请求ID头
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey gin.Context 中的键
	RequestIDKey = "request_id"
)

// RequestID 为每个请求分配ID，并把带ID的 logger 放进 context
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = id.New()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		l := logger.WithRequest(requestID, c.Request.Method, c.Request.URL.Path)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
		c.Next()
	}
}
