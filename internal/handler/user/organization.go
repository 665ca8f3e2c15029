package user

import (
	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	"hihitutor/internal/model/auth"
	httputil "hihitutor/internal/pkg/http"
)

// OrganizationStatusRequest 机构审核请求
type OrganizationStatusRequest struct {
	OrgStatus auth.OrgStatus `json:"orgStatus" binding:"required"`
}

// SetOrganizationStatus 审核机构账号
// @Summary   审核机构
// @Tags      用户
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id       path      string                     true  "用户ID"
// @Param     request  body      OrganizationStatusRequest  true  "审核状态"
// @Success   200  {object}  UserInfo
// @Failure   400  {object}  ErrorResponse
// @Failure   403  {object}  ErrorResponse
// @Router    /api/users/{id}/organization-status [put]
func (h *Handler) SetOrganizationStatus(c *gin.Context) {
	var req OrganizationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	user, err := h.userService.SetOrganizationStatus(c.Request.Context(), handler.Actor(c), c.Param("id"), req.OrgStatus)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "审核状态已更新", handler.NewUserInfo(user))
}

// Documents 机构文件下载链接
// @Summary   机构文件
// @Tags      用户
// @Produce   json
// @Security  BearerAuth
// @Param     id   path      string  true  "用户ID"
// @Success   200  {array}   service.DocumentLink
// @Failure   403  {object}  ErrorResponse
// @Router    /api/users/{id}/documents [get]
func (h *Handler) Documents(c *gin.Context) {
	links, err := h.userService.Documents(c.Request.Context(), handler.Actor(c), c.Param("id"))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "ok", links)
}
