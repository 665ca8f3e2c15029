package tutorcase

import (
	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	httputil "hihitutor/internal/pkg/http"
	"hihitutor/internal/service"
)

// CreateCase 发布个案
// @Summary      发布个案
// @Description  新个案未审核，状态为开放中，管理员审核后公开
// @Tags         补习个案
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      service.CreateCaseInput  true  "个案内容"
// @Success      201  {object}  tutorcase.Case
// @Failure      400  {object}  ErrorResponse
// @Router       /api/cases [post]
func (h *Handler) CreateCase(c *gin.Context) {
	var in service.CreateCaseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	tc, err := h.caseService.Create(c.Request.Context(), handler.Actor(c), &in)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.Created(c, "个案已提交，等待审核", tc)
}
