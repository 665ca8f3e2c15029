// Package apperr 统一的业务错误类型
//
// 服务层返回的错误都应该是 *Error（或包装了 *Error），
// Handler 层通过 Kind 映射 HTTP 状态码，Cause 只用于服务端日志，不返回给调用方。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类
type Kind int

const (
	KindInternal        Kind = iota // 存储或未知错误
	KindValidation                  // 输入校验失败
	KindConflict                    // 唯一性冲突
	KindNotFound                    // 资源不存在
	KindUnauthenticated             // 未登录 / Token 无效
	KindForbidden                   // 无权限
	KindTooManyRequests             // 请求过于频繁
)

// FieldError 字段级校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 业务错误
type Error struct {
	Kind    Kind
	Code    int    // 业务错误码，如 40001
	Message string // 可以返回给客户端的消息
	Fields  []FieldError
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is 同一个哨兵错误即使被 WithCause/WithFields 复制后也能匹配
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code && e.Message == t.Message
}

// HTTPStatus 返回对应的 HTTP 状态码
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WithFields 返回附带字段错误的副本
func (e *Error) WithFields(fields ...FieldError) *Error {
	cp := *e
	cp.Fields = append(append([]FieldError(nil), e.Fields...), fields...)
	return &cp
}

// WithCause 返回附带底层原因的副本
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// Validation 400
func Validation(code int, msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg, Fields: fields}
}

// Conflict 409
func Conflict(code int, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

// NotFound 404
func NotFound(code int, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

// Unauthenticated 401
func Unauthenticated(code int, msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Code: code, Message: msg}
}

// Forbidden 403
func Forbidden(code int, msg string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: msg}
}

// TooManyRequests 429
func TooManyRequests(code int, msg string) *Error {
	return &Error{Kind: KindTooManyRequests, Code: code, Message: msg}
}

// Internal 500，cause 只记录在服务端
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Code: 50001, Message: "服务器内部错误", Cause: cause}
}

// From 把任意错误转换为 *Error，未知错误视为 Internal
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

// IsKind 判断错误分类
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
