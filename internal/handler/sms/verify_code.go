package sms

import (
	"github.com/gin-gonic/gin"

	httputil "hihitutor/internal/pkg/http"
)

// VerifyCodeRequest 校验验证码请求
type VerifyCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifyCode 校验手机验证码
// @Summary      校验验证码
// @Description  校验成功后号码在有效期内可用于注册
// @Tags         短信
// @Accept       json
// @Produce      json
// @Param        request  body      VerifyCodeRequest  true  "电话与验证码"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /api/sms/verify-code [post]
func (h *Handler) VerifyCode(c *gin.Context) {
	var req VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	if err := h.verificationService.VerifyCode(c.Request.Context(), req.Phone, req.Code); err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "验证成功", gin.H{"verified": true})
}
