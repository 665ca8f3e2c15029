package auth

import (
	"github.com/gin-gonic/gin"

	httputil "hihitutor/internal/pkg/http"
)

// LoginRequest 用户登录请求
// identifier 可以是邮箱或电话；也兼容单独传 email / phone
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Password   string `json:"password" binding:"required"` // 密码（必填）
}

func (r *LoginRequest) identifier() string {
	switch {
	case r.Identifier != "":
		return r.Identifier
	case r.Email != "":
		return r.Email
	default:
		return r.Phone
	}
}

// Login 用户登录
// @Summary      用户登录
// @Description  邮箱或电话加密码登录，返回Access Token和Refresh Token
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "登录请求"
// @Success      200     {object}  LoginResponseData
// @Failure      400     {object}  ErrorResponse
// @Failure      401     {object}  ErrorResponse
// @Failure      403     {object}  ErrorResponse
// @Router       /api/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req.identifier(), req.Password)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "登录成功", toLoginResponse(res))
}
