package auth

import (
	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	"hihitutor/internal/server/middleware"
	httputil "hihitutor/internal/pkg/http"
	"hihitutor/internal/service"
)

// ErrorResponse 错误响应（所有API共用）
type ErrorResponse = httputil.ErrorResponse

// UserInfo 用户信息
type UserInfo = handler.UserInfo

// LoginResponseData 登录/注册响应数据
type LoginResponseData struct {
	AccessToken  string   `json:"accessToken"`  // Access Token
	RefreshToken string   `json:"refreshToken"` // Refresh Token
	ExpiresIn    int      `json:"expiresIn"`    // 过期时间（秒）
	TokenType    string   `json:"tokenType"`    // Token类型：Bearer
	Role         string   `json:"role"`         // 主角色
	User         UserInfo `json:"user"`         // 用户信息
}

func toLoginResponse(res *service.LoginResult) LoginResponseData {
	return LoginResponseData{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
		TokenType:    res.TokenType,
		Role:         string(res.Role),
		User:         handler.NewUserInfo(res.User),
	}
}

// refreshTokenFrom 先取请求头，再取请求体
func refreshTokenFrom(c *gin.Context, body string) string {
	if v := c.GetHeader(middleware.RefreshTokenHeader); v != "" {
		return v
	}
	return body
}
