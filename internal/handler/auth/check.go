package auth

import (
	"github.com/gin-gonic/gin"

	httputil "hihitutor/internal/pkg/http"
)

// CheckEmailRequest 邮箱检查请求
type CheckEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// CheckPhoneRequest 电话检查请求
type CheckPhoneRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// AvailabilityData 可用性检查结果
type AvailabilityData struct {
	Available bool `json:"available"`
}

// CheckEmail 检查邮箱是否可注册
// @Summary  检查邮箱
// @Tags     认证
// @Accept   json
// @Produce  json
// @Param    request  body      CheckEmailRequest  true  "邮箱"
// @Success  200      {object}  AvailabilityData
// @Failure  400      {object}  ErrorResponse
// @Router   /api/check-email [post]
func (h *Handler) CheckEmail(c *gin.Context) {
	var req CheckEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	ok, err := h.authService.CheckEmail(c.Request.Context(), req.Email)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "ok", AvailabilityData{Available: ok})
}

// CheckPhone 检查电话是否可注册
// @Summary  检查电话
// @Tags     认证
// @Accept   json
// @Produce  json
// @Param    request  body      CheckPhoneRequest  true  "电话"
// @Success  200      {object}  AvailabilityData
// @Failure  400      {object}  ErrorResponse
// @Router   /api/check-phone [post]
func (h *Handler) CheckPhone(c *gin.Context) {
	var req CheckPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	ok, err := h.authService.CheckPhone(c.Request.Context(), req.Phone)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "ok", AvailabilityData{Available: ok})
}
