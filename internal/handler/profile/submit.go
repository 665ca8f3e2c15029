package profile

import (
	"io"

	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	httputil "hihitutor/internal/pkg/http"
	"hihitutor/internal/service"
)

// maxSubmissionBody 资料提交请求体上限
const maxSubmissionBody = 1 << 20

// Submit 提交导师资料
// @Summary      提交资料
// @Description  写入待审版本；已发布版本在审批前保持不变。请求中包含 email/phone/_id 等身份字段时整体拒绝
// @Tags         导师资料
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId   path      string               true  "用户ID"
// @Param        request  body      service.SubmitInput  true  "资料内容"
// @Success      200  {object}  service.MyProfile
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /api/profiles/{userId}/submit [post]
func (h *Handler) Submit(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSubmissionBody))
	if err != nil {
		httputil.BadRequest(c, err)
		return
	}
	in, err := service.ParseSubmission(raw)
	if err != nil {
		httputil.Error(c, err)
		return
	}

	mine, err := h.profileService.Submit(c.Request.Context(), handler.Actor(c), c.Param("userId"), in)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "资料已提交，等待审核", mine)
}
