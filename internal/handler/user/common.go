package user

import (
	"hihitutor/internal/handler"
	httputil "hihitutor/internal/pkg/http"
)

// ErrorResponse 错误响应（所有API共用）
type ErrorResponse = httputil.ErrorResponse

// UserInfo 用户信息
type UserInfo = handler.UserInfo

// ListUsersResponseData 用户列表响应
type ListUsersResponseData struct {
	Users    []UserInfo `json:"users"`
	Total    int64      `json:"total"`
	Page     int64      `json:"page"`
	PageSize int64      `json:"pageSize"`
}
