package auth

import (
	"github.com/gin-gonic/gin"

	httputil "hihitutor/internal/pkg/http"
)

// Logout 用户登出
// @Summary      用户登出
// @Description  注销 Refresh Token；未提供时直接返回成功
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        X-Refresh-Token  header    string          false  "Refresh Token"
// @Param        request          body      RefreshRequest  false  "登出请求"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	var req RefreshRequest
	_ = c.ShouldBindJSON(&req)

	if token := refreshTokenFrom(c, req.RefreshToken); token != "" {
		if err := h.authService.Logout(c.Request.Context(), token); err != nil {
			httputil.Error(c, err)
			return
		}
	}
	httputil.OK(c, "登出成功", nil)
}
