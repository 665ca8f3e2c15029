package auth

import (
	"github.com/gin-gonic/gin"

	httputil "hihitutor/internal/pkg/http"
	"hihitutor/internal/service"
)

// ResetPassword 通过手机验证码重设密码
// @Summary  重设密码
// @Tags     认证
// @Accept   json
// @Produce  json
// @Param    request  body      service.ResetPasswordInput  true  "重设密码请求"
// @Success  200      {object}  map[string]interface{}
// @Failure  400      {object}  ErrorResponse
// @Router   /api/password/reset [post]
func (h *Handler) ResetPassword(c *gin.Context) {
	var in service.ResetPasswordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	if err := h.authService.ResetPassword(c.Request.Context(), &in); err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "密码已重设", nil)
}
