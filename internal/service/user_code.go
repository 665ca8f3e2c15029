package service

import (
	"context"
	"errors"
	"fmt"

	"hihitutor/internal/model/auth"
	"hihitutor/internal/pkg/id"
	authRepo "hihitutor/internal/repository/auth"
)

// maxCodeAttempts userCode 冲突时的最大重试次数
// 每次重试都会从计数器取新值，冲突只可能来自手工写入的编号
const maxCodeAttempts = 5

// errCodeExhausted 连续冲突
var errCodeExhausted = errors.New("user code allocation exhausted")

// FormatUserCode 前缀-5位序号
func FormatUserCode(prefix string, n int64) string {
	return fmt.Sprintf("%s-%05d", prefix, n)
}

// LegacyUserCode 历史数据缺少 userCode 时补一个不会与序号冲突的编号
func LegacyUserCode(u *auth.User) string {
	return fmt.Sprintf("%s-LEGACY-%s", auth.CodePrefixForTags(u.Tags), id.Short(u.ID))
}

// codeAllocator 按前缀计数器分配 userCode
// user_code 唯一索引是最终保证
type codeAllocator struct {
	users UserStore
}

// next 取计数器下一个值
func (a codeAllocator) next(ctx context.Context, prefix string) (string, error) {
	n, err := a.users.NextCodeNumber(ctx, prefix)
	if err != nil {
		return "", err
	}
	return FormatUserCode(prefix, n), nil
}

// assign 为 u 分配 prefix 对应的编号并通过 save 保存
// save 返回 ErrDuplicateUserCode 时换下一个编号重试
func (a codeAllocator) assign(ctx context.Context, u *auth.User, prefix string, save func(ctx context.Context) error) error {
	for range maxCodeAttempts {
		code, err := a.next(ctx, prefix)
		if err != nil {
			return err
		}
		u.UserCode = code
		err = save(ctx)
		if errors.Is(err, authRepo.ErrDuplicateUserCode) {
			continue
		}
		return err
	}
	return errCodeExhausted
}
