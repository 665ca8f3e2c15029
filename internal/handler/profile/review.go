package profile

import (
	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	httputil "hihitutor/internal/pkg/http"
	"hihitutor/internal/service"
)

// Approve 审批通过
// @Summary      审批资料
// @Description  发布最新提交的版本；个人用户同时获得 tutor 标签
// @Tags         导师资料
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "用户ID"
// @Success      200  {object}  service.MyProfile
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /api/profiles/approve/{userId} [put]
func (h *Handler) Approve(c *gin.Context) {
	mine, err := h.profileService.Approve(c.Request.Context(), handler.Actor(c), c.Param("userId"))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "审批通过", mine)
}

// Reject 驳回资料
// @Summary   驳回资料
// @Tags      导师资料
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     userId   path      string               true   "用户ID"
// @Param     request  body      service.RejectInput  false  "驳回原因"
// @Success   200  {object}  service.MyProfile
// @Failure   403  {object}  ErrorResponse
// @Failure   404  {object}  ErrorResponse
// @Router    /api/profiles/reject/{userId} [put]
func (h *Handler) Reject(c *gin.Context) {
	var in service.RejectInput
	// 原因可选
	_ = c.ShouldBindJSON(&in)

	mine, err := h.profileService.Reject(c.Request.Context(), handler.Actor(c), c.Param("userId"), &in)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "已驳回", mine)
}

// ListAll 所有资料
// @Summary   资料审批列表
// @Tags      导师资料
// @Produce   json
// @Security  BearerAuth
// @Success   200  {array}   service.ProfileReviewItem
// @Failure   403  {object}  ErrorResponse
// @Router    /api/profiles/all [get]
func (h *Handler) ListAll(c *gin.Context) {
	items, err := h.profileService.ListAll(c.Request.Context(), handler.Actor(c))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "ok", items)
}
