package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxBytes bcrypt 只接受不超过 72 字节的密码
const MaxBytes = 72

// ErrTooLong 超过 MaxBytes
var ErrTooLong = errors.New("password exceeds 72 bytes")

// dummyHash 用户不存在时也做一次比较，使两种失败的耗时接近
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("hihitutor-dummy-password"), bcrypt.DefaultCost)

// Hash 加密密码
func Hash(password string) (string, error) {
	if len(password) > MaxBytes {
		return "", ErrTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify 验证密码
func Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// VerifyDummy 对固定哈希做一次比较，结果恒为 false
func VerifyDummy(password string) bool {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
	return false
}
