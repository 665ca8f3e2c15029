package profile

import (
	httputil "hihitutor/internal/pkg/http"
	"hihitutor/internal/service"
)

// ErrorResponse 错误响应
type ErrorResponse = httputil.ErrorResponse

// Handler 导师资料处理器
type Handler struct {
	profileService *service.ProfileService
}

// NewHandler 创建导师资料处理器
func NewHandler(profileService *service.ProfileService) *Handler {
	return &Handler{profileService: profileService}
}
