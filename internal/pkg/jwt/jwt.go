// Package jwt 签发与解析访问令牌
package jwt

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "hihitutor"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Subject 令牌持有者
type Subject struct {
	UserID   string
	UserCode string
	Role     string
}

// Claims 访问令牌内容
// Role 仅供客户端展示，权限判断以数据库中的标签为准
type Claims struct {
	UserCode string `json:"user_code,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// UserID 即 sub
func (c *Claims) UserID() string {
	return c.Subject
}

// Issuer HS256 令牌签发器
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer ttl 为访问令牌有效期
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL 访问令牌有效期
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue 签发访问令牌
func (i *Issuer) Issue(sub Subject) (string, error) {
	if sub.UserID == "" {
		return "", ErrInvalidToken
	}
	now := i.now()
	claims := &Claims{
		UserCode: sub.UserCode,
		Role:     sub.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sub.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse 校验签名、签发方与有效期
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	case claims.Subject == "":
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// NewRefreshToken 随机 32 字节，十六进制
func NewRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
