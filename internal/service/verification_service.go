package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"hihitutor/internal/pkg/apperr"
	"hihitutor/internal/pkg/metrics"
	"hihitutor/internal/pkg/notify"
	"hihitutor/internal/pkg/ratelimit"
	"hihitutor/internal/pkg/validate"
	"hihitutor/internal/pkg/verification"
)

// VerificationService 手机验证码服务
type VerificationService struct {
	store      verification.Store
	sms        notify.SMSSender
	limiter    *ratelimit.Keyed
	codeTTL    time.Duration
	exposeCode bool
	metrics    *metrics.Metrics
}

// VerificationOptions 验证码服务选项
type VerificationOptions struct {
	CodeTTL    time.Duration
	ExposeCode bool // 开发环境在响应中返回验证码
}

// NewVerificationService 创建验证码服务，limiter 为空时不限流
func NewVerificationService(
	store verification.Store,
	sms notify.SMSSender,
	limiter *ratelimit.Keyed,
	opts VerificationOptions,
	m *metrics.Metrics,
) *VerificationService {
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = verification.DefaultCodeTTL
	}
	return &VerificationService{
		store:      store,
		sms:        sms,
		limiter:    limiter,
		codeTTL:    opts.CodeTTL,
		exposeCode: opts.ExposeCode,
		metrics:    m,
	}
}

// SendCodeResult 发送结果
type SendCodeResult struct {
	ExpiresIn int    `json:"expiresIn"`
	Code      string `json:"code,omitempty"`
}

// SendCode 生成验证码并发送短信，同一号码覆盖之前的验证码
func (s *VerificationService) SendCode(ctx context.Context, phone string) (*SendCodeResult, error) {
	if err := validate.Var("phone", phone, "required,hkphone"); err != nil {
		return nil, err
	}
	if s.limiter != nil && !s.limiter.Allow(phone) {
		return nil, ErrTooManyCodeRequests
	}

	code, err := s.store.Issue(ctx, phone)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue verification code")
		return nil, apperr.Internal(err)
	}

	minutes := int(s.codeTTL / time.Minute)
	if err := s.sms.SendSMS(ctx, phone, notify.VerificationSMS(code, minutes)); err != nil {
		log.Error().Err(err).Msg("failed to send verification sms")
		return nil, apperr.Internal(err)
	}

	result := &SendCodeResult{ExpiresIn: int(s.codeTTL.Seconds())}
	if s.exposeCode {
		result.Code = code
	}
	return result, nil
}

// VerifyCode 校验验证码，成功后号码进入已验证状态
func (s *VerificationService) VerifyCode(ctx context.Context, phone, code string) error {
	err := verifyError(s.store.Verify(ctx, phone, code))
	switch {
	case err == nil:
		s.metrics.Verification("ok")
	case errors.Is(err, ErrCodeMismatch):
		s.metrics.Verification("mismatch")
	case errors.Is(err, ErrCodeExpired):
		s.metrics.Verification("expired")
	}
	return err
}

// verifyError 把存储层错误转换为业务错误
func verifyError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, verification.ErrMissingParam):
		return ErrMissingPhoneOrCode
	case errors.Is(err, verification.ErrCodeMismatch):
		return ErrCodeMismatch
	case errors.Is(err, verification.ErrCodeExpired):
		return ErrCodeExpired
	default:
		log.Error().Err(err).Msg("failed to verify code")
		return apperr.Internal(err)
	}
}
