package profile

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	httputil "hihitutor/internal/pkg/http"
)

// UploadAvatar 上传头像
// @Summary   上传头像
// @Tags      导师资料
// @Accept    mpfd
// @Produce   json
// @Security  BearerAuth
// @Param     userId  path      string  true  "用户ID"
// @Param     avatar  formData  file    true  "头像（jpg/png）"
// @Success   200  {object}  service.MyProfile
// @Failure   400  {object}  ErrorResponse
// @Router    /api/profiles/{userId}/avatar [post]
func (h *Handler) UploadAvatar(c *gin.Context) {
	var files handler.FormFiles
	defer files.Close()

	in, err := files.First(c, "avatar")
	if err != nil {
		httputil.BadRequest(c, err)
		return
	}
	if in == nil {
		httputil.BadRequest(c, errors.New("avatar is required"))
		return
	}

	mine, err := h.profileService.UploadAvatar(c.Request.Context(), handler.Actor(c), c.Param("userId"), in)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "头像已上传", mine)
}

// UploadCertificates 上传证书
// @Summary      上传证书
// @Description  追加到最新版本的证书列表末尾，等待审批
// @Tags         导师资料
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        userId        path      string  true  "用户ID"
// @Param        certificates  formData  file    true  "证书（pdf/jpg/png，可多个）"
// @Success      200  {object}  service.MyProfile
// @Failure      400  {object}  ErrorResponse
// @Router       /api/profiles/{userId}/certificates [post]
func (h *Handler) UploadCertificates(c *gin.Context) {
	var files handler.FormFiles
	defer files.Close()

	ins, err := files.All(c, "certificates", "certificates[]")
	if err != nil {
		httputil.BadRequest(c, err)
		return
	}
	if len(ins) == 0 {
		httputil.BadRequest(c, errors.New("certificates is required"))
		return
	}

	mine, err := h.profileService.UploadCertificates(c.Request.Context(), handler.Actor(c), c.Param("userId"), ins)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, "证书已上传", mine)
}
