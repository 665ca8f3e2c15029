package tutorcase

import (
	httputil "hihitutor/internal/pkg/http"
	"hihitutor/internal/service"
)

// ErrorResponse 错误响应
type ErrorResponse = httputil.ErrorResponse

// Handler 补习个案处理器
type Handler struct {
	caseService *service.CaseService
}

// NewHandler 创建补习个案处理器
func NewHandler(caseService *service.CaseService) *Handler {
	return &Handler{caseService: caseService}
}
