package user

import (
	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	httputil "hihitutor/internal/pkg/http"
)

// GetUser 查看用户
// @Summary   查看用户
// @Tags      用户
// @Produce   json
// @Security  BearerAuth
// @Param     id   path      string  true  "用户ID"
// @Success   200  {object}  UserInfo
// @Failure   403  {object}  ErrorResponse
// @Failure   404  {object}  ErrorResponse
// @Router    /api/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), handler.Actor(c), c.Param("id"))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "ok", handler.NewUserInfo(user))
}

// Me 当前用户信息
// @Summary   当前用户
// @Tags      用户
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  UserInfo
// @Failure   401  {object}  ErrorResponse
// @Router    /api/users/me [get]
func (h *Handler) Me(c *gin.Context) {
	user, err := h.userService.Me(c.Request.Context(), handler.Actor(c))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "ok", handler.NewUserInfo(user))
}
