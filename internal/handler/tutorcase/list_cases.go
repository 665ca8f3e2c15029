package tutorcase

import (
	"context"

	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	"hihitutor/internal/model/auth"
	"hihitutor/internal/model/tutorcase"
	httputil "hihitutor/internal/pkg/http"
	"hihitutor/internal/service"
)

type listFunc func(ctx context.Context, actor *auth.Actor, in *service.ListCasesInput) ([]*tutorcase.Case, error)

func (h *Handler) list(c *gin.Context, fn listFunc) {
	var in service.ListCasesInput
	if err := c.ShouldBindQuery(&in); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	cases, err := fn(c.Request.Context(), handler.Actor(c), &in)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	if cases == nil {
		cases = []*tutorcase.Case{}
	}
	httputil.OK(c, "ok", cases)
}

// PublicCases 公开个案
// @Summary      公开个案
// @Description  已审核且状态为开放中或配對中
// @Tags         补习个案
// @Produce      json
// @Param        postType  query     string  false  "student-seeking-tutor/tutor-seeking-student"
// @Param        sort      query     string  false  "排序字段，前缀 - 表示降序，默认 -createdAt"
// @Param        limit     query     int     false  "数量上限"
// @Success      200  {array}   tutorcase.Case
// @Router       /api/cases/public [get]
func (h *Handler) PublicCases(c *gin.Context) {
	h.list(c, func(ctx context.Context, _ *auth.Actor, in *service.ListCasesInput) ([]*tutorcase.Case, error) {
		return h.caseService.PublicList(ctx, in)
	})
}

// ListCases 已审核个案
// @Summary   已审核个案
// @Tags      补习个案
// @Produce   json
// @Security  BearerAuth
// @Param     postType  query     string  false  "类型"
// @Param     sort      query     string  false  "排序"
// @Param     limit     query     int     false  "数量上限"
// @Success   200  {array}   tutorcase.Case
// @Router    /api/cases [get]
func (h *Handler) ListCases(c *gin.Context) {
	h.list(c, func(ctx context.Context, _ *auth.Actor, in *service.ListCasesInput) ([]*tutorcase.Case, error) {
		return h.caseService.List(ctx, in)
	})
}

// MyCases 我发布的个案
// @Summary   我的个案
// @Tags      补习个案
// @Produce   json
// @Security  BearerAuth
// @Success   200  {array}   tutorcase.Case
// @Router    /api/cases/my [get]
func (h *Handler) MyCases(c *gin.Context) {
	h.list(c, h.caseService.OwnerList)
}

// PendingCases 待审核个案
// @Summary   待审核个案
// @Tags      补习个案
// @Produce   json
// @Security  BearerAuth
// @Success   200  {array}   tutorcase.Case
// @Failure   403  {object}  ErrorResponse
// @Router    /api/cases/pending [get]
func (h *Handler) PendingCases(c *gin.Context) {
	h.list(c, h.caseService.PendingList)
}
