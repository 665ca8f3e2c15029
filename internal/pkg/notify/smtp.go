package notify

import (
	"context"
	"time"

	"gopkg.in/mail.v2"

	"hihitutor/internal/config"
)

// SMTPMailer 通过 SMTP 发送邮件
type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
	name   string
}

// NewSMTPMailer 创建 SMTP 发送器
func NewSMTPMailer(cfg config.SMTPConfig, fromName, fromEmail string) *SMTPMailer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = 20 * time.Second
	d.SSL = cfg.SSL
	if fromEmail == "" {
		fromEmail = cfg.Username
	}
	return &SMTPMailer{dialer: d, from: fromEmail, name: fromName}
}

// Send 发送邮件
func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetAddressHeader("From", s.from, s.name)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return s.dialer.DialAndSend(m)
}
