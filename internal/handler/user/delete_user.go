package user

import (
	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	httputil "hihitutor/internal/pkg/http"
)

// DeleteUser 删除或停用用户
// @Summary      删除用户
// @Description  管理员删除任意账号；普通用户只能停用自己的账号
// @Tags         用户
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "用户ID"
// @Success      200  {object}  service.DeactivateResult
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	res, err := h.userService.Deactivate(c.Request.Context(), handler.Actor(c), c.Param("id"))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	msg := "账号已停用"
	if res.Deleted {
		msg = "用户已删除"
	}
	httputil.OK(c, msg, res)
}
