package profile

import (
	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	httputil "hihitutor/internal/pkg/http"
)

// GetApproved 公开的导师资料
// @Summary      查看导师资料
// @Description  只返回已发布版本，没有时返回 404
// @Tags         导师资料
// @Produce      json
// @Param        userId  path      string  true  "用户ID"
// @Success      200  {object}  profile.Snapshot
// @Failure      404  {object}  ErrorResponse
// @Router       /api/profiles/{userId} [get]
func (h *Handler) GetApproved(c *gin.Context) {
	snap, err := h.profileService.GetApproved(c.Request.Context(), c.Param("userId"))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "ok", snap)
}

// GetMine 我的资料（含待审版本）
// @Summary   我的资料
// @Tags      导师资料
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  service.MyProfile
// @Failure   404  {object}  ErrorResponse
// @Router    /api/profiles/me [get]
func (h *Handler) GetMine(c *gin.Context) {
	mine, err := h.profileService.GetMine(c.Request.Context(), handler.Actor(c))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "ok", mine)
}

// ListTutors 公开导师列表
// @Summary      导师列表
// @Description  已发布资料且账号有效的导师，最近审批的在前
// @Tags         导师资料
// @Produce      json
// @Success      200  {array}   service.TutorListing
// @Failure      500  {object}  ErrorResponse
// @Router       /api/tutors [get]
func (h *Handler) ListTutors(c *gin.Context) {
	tutors, err := h.profileService.ListTutors(c.Request.Context())
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "ok", tutors)
}
