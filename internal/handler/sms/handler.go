package sms

import (
	httputil "hihitutor/internal/pkg/http"
	"hihitutor/internal/service"
)

// ErrorResponse 错误响应
type ErrorResponse = httputil.ErrorResponse

// Handler 短信验证码处理器
type Handler struct {
	verificationService *service.VerificationService
}

// NewHandler 创建短信验证码处理器
func NewHandler(verificationService *service.VerificationService) *Handler {
	return &Handler{verificationService: verificationService}
}
