package user

import (
	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	httputil "hihitutor/internal/pkg/http"
)

// UpgradeToTutor 升级为导师
// @Summary   升级为导师
// @Tags      用户
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  UserInfo
// @Failure   400  {object}  ErrorResponse
// @Router    /api/upgrade-to-tutor [post]
func (h *Handler) UpgradeToTutor(c *gin.Context) {
	user, err := h.userService.UpgradeToTutor(c.Request.Context(), handler.Actor(c))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "已升级为导师", handler.NewUserInfo(user))
}
