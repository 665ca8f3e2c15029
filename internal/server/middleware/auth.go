package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"hihitutor/internal/model/auth"
	"hihitutor/internal/pkg/apperr"
	"hihitutor/internal/pkg/ctxutil"
	httputil "hihitutor/internal/pkg/http"
)

const (
	// UserIDKey gin.Context 中的用户ID
	UserIDKey = "user_id"
	// RefreshTokenHeader 注销时可以通过请求头传入 Refresh Token
	RefreshTokenHeader = "X-Refresh-Token"
)

var (
	errUnauthorized = apperr.Unauthenticated(40100, "未授权")
	errBadHeader    = apperr.Unauthenticated(40104, "Authorization 格式应为 Bearer {token}")
	errForbidden    = apperr.Forbidden(40300, "无权限执行此操作")
)

// Authenticator 校验 Token 并返回最新的用户记录
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.User, error)
}

// Auth JWT 认证中间件
// 角色由数据库中的标签重新计算，Token 中的角色不参与判断
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.Abort(c, errUnauthorized)
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			httputil.Abort(c, errBadHeader)
			return
		}

		user, err := a.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			httputil.Abort(c, err)
			return
		}

		actor := auth.NewActor(user)
		c.Set(UserIDKey, actor.UserID)
		c.Request = c.Request.WithContext(ctxutil.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// OptionalAuth 公开接口上识别调用者：没有 Token 时按匿名处理，Token 无效时仍返回错误
func OptionalAuth(a Authenticator) gin.HandlerFunc {
	required := Auth(a)
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		required(c)
	}
}

// RequireRoles 要求操作者同时拥有全部指定角色（含继承）
func RequireRoles(roles ...auth.Role) gin.HandlerFunc {
	need := auth.NewRoleSet(roles...)
	return func(c *gin.Context) {
		actor, ok := ctxutil.GetActor(c.Request.Context())
		if !ok {
			httputil.Abort(c, errUnauthorized)
			return
		}
		if !actor.Roles.Covers(need) {
			httputil.Abort(c, errForbidden)
			return
		}
		c.Next()
	}
}

// RequireAdmin 仅管理员
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(auth.RoleAdmin)
}
