// Package notify 短信与邮件通知（单向发送，不关心回执）
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hihitutor/internal/config"
)

// Message 邮件内容
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// EmailSender 邮件发送
type EmailSender interface {
	Send(ctx context.Context, msg Message) error
}

// SMSSender 短信发送
type SMSSender interface {
	SendSMS(ctx context.Context, phone, text string) error
}

// NewEmailSender 根据配置创建邮件发送器，外部服务发送均为异步
func NewEmailSender(cfg *config.NotifyConfig) (EmailSender, error) {
	switch cfg.EmailDriver {
	case "", "log":
		return LogMailer{}, nil
	case "smtp":
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("smtp host is required")
		}
		return Async(NewSMTPMailer(cfg.SMTP, cfg.FromName, cfg.FromEmail)), nil
	case "sendgrid":
		if cfg.SendGrid.APIKey == "" {
			return nil, fmt.Errorf("sendgrid api key is required")
		}
		return Async(NewSendGridMailer(cfg.SendGrid.APIKey, cfg.FromName, cfg.FromEmail)), nil
	default:
		return nil, fmt.Errorf("unsupported email driver: %s", cfg.EmailDriver)
	}
}

// NewSMSSender 根据配置创建短信发送器
func NewSMSSender(cfg *config.NotifyConfig) (SMSSender, error) {
	switch cfg.SMSDriver {
	case "", "log":
		return LogSMS{}, nil
	default:
		return nil, fmt.Errorf("unsupported sms driver: %s", cfg.SMSDriver)
	}
}

// LogSMS 开发环境短信：写入日志
type LogSMS struct{}

// SendSMS 记录短信内容
func (LogSMS) SendSMS(_ context.Context, phone, text string) error {
	log.Info().Str("phone", phone).Str("text", text).Msg("sms sent (log driver)")
	return nil
}

// LogMailer 开发环境邮件：写入日志
type LogMailer struct{}

// Send 记录邮件标题
func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email sent (log driver)")
	return nil
}

// asyncSender 后台发送，失败只记录日志
type asyncSender struct {
	next    EmailSender
	timeout time.Duration
}

// Async 包装为异步发送，请求返回不等待外部服务
func Async(next EmailSender) EmailSender {
	return &asyncSender{next: next, timeout: 30 * time.Second}
}

// Send 立即返回
func (a *asyncSender) Send(_ context.Context, msg Message) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.next.Send(ctx, msg); err != nil {
			log.Error().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("异步发送邮件失败")
		}
	}()
	return nil
}
