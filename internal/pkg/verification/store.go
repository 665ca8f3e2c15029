// Package verification 手机验证码存储
//
// 每个号码同时最多只有一个有效验证码；验证成功后验证码被删除，
// 号码进入"已验证"状态，注册时消费该状态。
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

var (
	ErrMissingParam = errors.New("缺少电话或验证码")
	ErrCodeExpired  = errors.New("验证码不存在或已过期")
	ErrCodeMismatch = errors.New("验证码错误")
)

// 默认有效期
const (
	DefaultCodeTTL     = 5 * time.Minute
	DefaultVerifiedTTL = 10 * time.Minute
)

// Store 验证码存储
type Store interface {
	// Issue 生成并保存验证码，覆盖该号码之前的验证码
	Issue(ctx context.Context, phone string) (string, error)
	// Verify 校验并消费验证码，失败时验证码保留以便重试
	Verify(ctx context.Context, phone, code string) error
	// IsVerified 号码是否处于已验证状态
	IsVerified(ctx context.Context, phone string) (bool, error)
	// ConsumeVerified 原子地取走已验证状态，返回取走前是否有效
	ConsumeVerified(ctx context.Context, phone string) (bool, error)
	// MarkVerified 直接标记为已验证（注册写入失败时归还）
	MarkVerified(ctx context.Context, phone string) error
}

// Clock 时间来源，测试时注入
type Clock interface {
	Now() time.Time
}

// ClockFunc 函数适配
type ClockFunc func() time.Time

// Now 当前时间
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock 系统时间
var SystemClock Clock = ClockFunc(time.Now)

// Options 存储选项
type Options struct {
	CodeTTL     time.Duration
	VerifiedTTL time.Duration
	Clock       Clock
	Generate    func() (string, error)
}

func (o *Options) withDefaults() {
	if o.CodeTTL <= 0 {
		o.CodeTTL = DefaultCodeTTL
	}
	if o.VerifiedTTL <= 0 {
		o.VerifiedTTL = DefaultVerifiedTTL
	}
	if o.Clock == nil {
		o.Clock = SystemClock
	}
	if o.Generate == nil {
		o.Generate = GenerateCode
	}
}

// GenerateCode 生成6位数字验证码
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
