package user

import (
	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	httputil "hihitutor/internal/pkg/http"
	"hihitutor/internal/service"
)

// ListUsers 用户列表
// @Summary      用户列表
// @Description  仅管理员，支持按类型、标签、状态过滤
// @Tags         用户
// @Produce      json
// @Security     BearerAuth
// @Param        userType  query     string  false  "individual/organization"
// @Param        tag       query     string  false  "标签"
// @Param        status    query     string  false  "active/inactive"
// @Param        page      query     int     false  "页码"
// @Param        pageSize  query     int     false  "每页数量"
// @Success      200  {object}  ListUsersResponseData
// @Failure      403  {object}  ErrorResponse
// @Router       /api/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	var in service.ListUsersInput
	if err := c.ShouldBindQuery(&in); err != nil {
		httputil.BadRequest(c, err)
		return
	}

	res, err := h.userService.List(c.Request.Context(), handler.Actor(c), &in)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "ok", ListUsersResponseData{
		Users:    handler.NewUserInfoList(res.Users),
		Total:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
	})
}
