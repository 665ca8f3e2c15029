package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"hihitutor/internal/pkg/apperr"
	"hihitutor/internal/pkg/ctxutil"
)

// OK 返回 200 成功响应
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(nethttp.StatusOK, NewSuccessResponse(message, data))
}

// Created 返回 201 成功响应
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(nethttp.StatusCreated, NewSuccessResponse(message, data))
}

// Error 把业务错误写入响应
// 500 类错误只记录日志，响应中只有通用消息
func Error(c *gin.Context, err error) {
	ae := apperr.From(err)
	status := ae.HTTPStatus()
	if status >= nethttp.StatusInternalServerError {
		userID, _ := ctxutil.GetUserID(c.Request.Context())
		zerolog.Ctx(c.Request.Context()).Error().Err(err).
			Str("user_id", userID).
			Str("route", c.FullPath()).
			Msg("request failed")
	}
	c.JSON(status, NewAppErrorResponse(ae))
}

// Abort 写入错误并中止后续处理（中间件使用）
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// BadRequest 请求体无法解析
func BadRequest(c *gin.Context, err error) {
	c.JSON(nethttp.StatusBadRequest, NewErrorResponse(40001, "请求参数错误", err.Error()))
}
