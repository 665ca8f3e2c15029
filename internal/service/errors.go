package service

import (
	"hihitutor/internal/pkg/apperr"
	"hihitutor/internal/pkg/validate"
)

// 参数错误
var (
	ErrInvalidInput       = validate.ErrInvalidInput
	ErrPhoneNotVerified   = apperr.Validation(40002, "电话号码尚未验证或验证已过期")
	ErrNotIndividual      = apperr.Validation(40003, "只有个人用户可以升级为导师")
	ErrForbiddenField     = apperr.Validation(40004, "包含不允许修改的字段")
	ErrCodeMismatch       = apperr.Validation(40005, "验证码错误")
	ErrCodeExpired        = apperr.Validation(40006, "验证码不存在或已过期")
	ErrMissingPhoneOrCode = apperr.Validation(40007, "缺少电话或验证码")
	ErrStatusBackward     = apperr.Validation(40008, "个案状态只能向前推进")
	ErrCaseNotApproved    = apperr.Validation(40009, "个案尚未审核，不能推进状态")
	ErrInvalidFile        = apperr.Validation(40010, "文件校验失败")
	ErrMissingDocuments   = apperr.Validation(40011, "机构注册需要上传商业登记、公司注册及地址证明三份文件")
	ErrNotOrganization    = apperr.Validation(40012, "该用户不是机构账号")
	ErrUseRejectAction    = apperr.Validation(40013, "请使用拒绝操作")
)

// 认证与权限
var (
	ErrInvalidCredentials      = apperr.Unauthenticated(40101, "账号或密码错误")
	ErrInvalidToken            = apperr.Unauthenticated(40102, "Token无效")
	ErrExpiredToken            = apperr.Unauthenticated(40103, "Token已过期")
	ErrForbidden               = apperr.Forbidden(40300, "无权限执行此操作")
	ErrUserInactive            = apperr.Forbidden(40301, "账号已停用")
	ErrOrganizationDocsMissing = apperr.Forbidden(40302, "机构文件不齐全，请联系客服")
	ErrOrganizationNotApproved = apperr.Forbidden(40303, "机构账号尚未通过审核")
)

// 资源不存在
var (
	ErrUserNotFound    = apperr.NotFound(40401, "用户不存在")
	ErrProfileNotFound = apperr.NotFound(40402, "资料不存在")
	ErrCaseNotFound    = apperr.NotFound(40403, "个案不存在")
	ErrFileNotFound    = apperr.NotFound(40404, "文件不存在")
)

// 冲突
var (
	ErrEmailTaken     = apperr.Conflict(40901, "该邮箱已被注册")
	ErrPhoneTaken     = apperr.Conflict(40902, "该电话号码已被注册")
	ErrProfileChanged = apperr.Conflict(40903, "资料已被重新提交，请刷新后再审批")
	ErrCaseRejected   = apperr.Conflict(40904, "个案已被拒绝，不能再修改")
)

// ErrTooManyCodeRequests 发送验证码过于频繁
var ErrTooManyCodeRequests = apperr.TooManyRequests(42901, "请求过于频繁，请稍后再试")
