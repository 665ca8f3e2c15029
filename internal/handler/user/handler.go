package user

import (
	"hihitutor/internal/service"
)

// Handler 用户管理处理器
type Handler struct {
	userService *service.UserService
}

// NewHandler 创建用户管理处理器
func NewHandler(userService *service.UserService) *Handler {
	return &Handler{userService: userService}
}
