package sms

import (
	"github.com/gin-gonic/gin"

	httputil "hihitutor/internal/pkg/http"
)

// SendCodeRequest 发送验证码请求
type SendCodeRequest struct {
	Phone string `json:"phone"`
}

// SendCode 发送手机验证码
// @Summary      发送验证码
// @Description  同一号码只保留最新的验证码；开发环境下响应中返回验证码
// @Tags         短信
// @Accept       json
// @Produce      json
// @Param        request  body      SendCodeRequest  true  "电话"
// @Success      200  {object}  service.SendCodeResult
// @Failure      400  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Router       /api/sms/send-code [post]
func (h *Handler) SendCode(c *gin.Context) {
	var req SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	res, err := h.verificationService.SendCode(c.Request.Context(), req.Phone)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "验证码已发送", res)
}
