package auth

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"

	"hihitutor/internal/handler"
	"hihitutor/internal/model/auth"
	httputil "hihitutor/internal/pkg/http"
	"hihitutor/internal/service"
)

// Register 用户注册
// @Summary      用户注册
// @Description  个人用户提交 JSON；机构用户使用 multipart 并上传 br / cr / addressProof 三份文件
// @Tags         认证
// @Accept       json,mpfd
// @Produce      json
// @Param        request       body      service.RegisterInput  false  "注册请求（JSON）"
// @Param        br            formData  file                   false  "商业登记证"
// @Param        cr            formData  file                   false  "公司注册证明"
// @Param        addressProof  formData  file                   false  "地址证明"
// @Success      201  {object}  LoginResponseData
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /api/register [post]
func (h *Handler) Register(c *gin.Context) {
	var in service.RegisterInput

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&in); err != nil {
			httputil.BadRequest(c, err)
			return
		}
		h.register(c, &in)
		return
	}

	if err := c.ShouldBind(&in); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	// multipart 中监护人信息以 JSON 字符串传递
	if raw := c.PostForm("guardian"); raw != "" {
		var g auth.Guardian
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			httputil.BadRequest(c, err)
			return
		}
		in.Guardian = &g
	}

	var files handler.FormFiles
	defer files.Close()

	var err error
	if in.Documents.BusinessRegistration, err = files.First(c, "br", "businessRegistration"); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	if in.Documents.CR, err = files.First(c, "cr"); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	if in.Documents.AddressProof, err = files.First(c, "addressProof"); err != nil {
		httputil.BadRequest(c, err)
		return
	}
	h.register(c, &in)
}

func (h *Handler) register(c *gin.Context, in *service.RegisterInput) {
	res, err := h.authService.Register(c.Request.Context(), in)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.Created(c, "注册成功", toLoginResponse(res))
}
