package tutorcase

import (
	"io"

	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	httputil "hihitutor/internal/pkg/http"
	"hihitutor/internal/service"
)

const maxUpdateBody = 1 << 20

// GetCase 个案详情
// @Summary      个案详情
// @Description  未审核的个案只有发布者和管理员可见
// @Tags         补习个案
// @Produce      json
// @Param        id   path      string  true  "个案ID"
// @Success      200  {object}  tutorcase.Case
// @Failure      404  {object}  ErrorResponse
// @Router       /api/cases/{id} [get]
func (h *Handler) GetCase(c *gin.Context) {
	tc, err := h.caseService.Get(c.Request.Context(), handler.Actor(c), c.Param("id"))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "ok", tc)
}

// UpdateCase 修改个案
// @Summary      修改个案
// @Description  发布者或管理员；状态只能向前推进，已拒绝的个案不能修改
// @Tags         补习个案
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "个案ID"
// @Param        request  body      service.UpdateCaseInput  true  "修改内容"
// @Success      200  {object}  tutorcase.Case
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /api/cases/{id} [put]
func (h *Handler) UpdateCase(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUpdateBody))
	if err != nil {
		httputil.BadRequest(c, err)
		return
	}
	in, err := service.ParseCaseUpdate(raw)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	tc, err := h.caseService.GeneralUpdate(c.Request.Context(), handler.Actor(c), c.Param("id"), in)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "更新成功", tc)
}

// ApproveCase 审核通过
// @Summary   审核个案
// @Tags      补习个案
// @Produce   json
// @Security  BearerAuth
// @Param     id   path      string  true  "个案ID"
// @Success   200  {object}  tutorcase.Case
// @Failure   403  {object}  ErrorResponse
// @Failure   409  {object}  ErrorResponse
// @Router    /api/cases/{id}/approve [put]
func (h *Handler) ApproveCase(c *gin.Context) {
	tc, err := h.caseService.Approve(c.Request.Context(), handler.Actor(c), c.Param("id"))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "审核通过", tc)
}

// RejectCase 拒绝个案
// @Summary   拒绝个案
// @Tags      补习个案
// @Produce   json
// @Security  BearerAuth
// @Param     id   path      string  true  "个案ID"
// @Success   200  {object}  tutorcase.Case
// @Failure   403  {object}  ErrorResponse
// @Router    /api/cases/{id}/reject [put]
func (h *Handler) RejectCase(c *gin.Context) {
	tc, err := h.caseService.Reject(c.Request.Context(), handler.Actor(c), c.Param("id"))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "已拒绝", tc)
}

// DeleteCase 删除个案
// @Summary   删除个案
// @Tags      补习个案
// @Produce   json
// @Security  BearerAuth
// @Param     id   path      string  true  "个案ID"
// @Success   200  {object}  map[string]interface{}
// @Failure   403  {object}  ErrorResponse
// @Failure   404  {object}  ErrorResponse
// @Router    /api/cases/{id} [delete]
func (h *Handler) DeleteCase(c *gin.Context) {
	if err := h.caseService.Delete(c.Request.Context(), handler.Actor(c), c.Param("id")); err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "已删除", nil)
}
