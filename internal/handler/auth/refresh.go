package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	httputil "hihitutor/internal/pkg/http"
)

// RefreshRequest 刷新Token请求
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponseData 刷新Token响应
type RefreshResponseData struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
	TokenType   string `json:"tokenType"`
}

// Refresh 刷新Access Token
// @Summary      刷新Token
// @Description  Refresh Token 可放在 X-Refresh-Token 请求头或请求体中
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        X-Refresh-Token  header    string          false  "Refresh Token"
// @Param        request          body      RefreshRequest  false  "刷新请求"
// @Success      200  {object}  RefreshResponseData
// @Failure      401  {object}  ErrorResponse
// @Router       /api/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	// 请求体可以为空
	_ = c.ShouldBindJSON(&req)

	token := refreshTokenFrom(c, req.RefreshToken)
	if token == "" {
		httputil.BadRequest(c, errors.New("refresh token is required"))
		return
	}

	res, err := h.authService.RefreshToken(c.Request.Context(), token)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "刷新成功", RefreshResponseData{
		AccessToken: res.AccessToken,
		ExpiresIn:   res.ExpiresIn,
		TokenType:   res.TokenType,
	})
}
