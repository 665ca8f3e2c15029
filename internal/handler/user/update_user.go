package user

import (
	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	httputil "hihitutor/internal/pkg/http"
	"hihitutor/internal/service"
)

// UpdateUser 修改用户
// @Summary      修改用户
// @Description  本人可修改基本信息；标签和状态仅管理员可修改
// @Tags         用户
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "用户ID"
// @Param        request  body      service.UpdateUserInput  true  "修改内容"
// @Success      200  {object}  UserInfo
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /api/users/{id} [put]
func (h *Handler) UpdateUser(c *gin.Context) {
	var in service.UpdateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	user, err := h.userService.Update(c.Request.Context(), handler.Actor(c), c.Param("id"), &in)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "更新成功", handler.NewUserInfo(user))
}
