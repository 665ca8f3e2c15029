package verification

import (
	"context"

	"github.com/redis/go-redis/v9"

	"hihitutor/internal/pkg/cache"
)

// verifyScript 比较验证码，一致时删除验证码并写入已验证标记
// 返回 0: 不存在, 1: 不一致, 2: 成功
var verifyScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	return 0
end
if v ~= ARGV[1] then
	return 1
end
redis.call('DEL', KEYS[1])
redis.call('SET', KEYS[2], '1', 'PX', ARGV[2])
return 2
`)

// RedisStore 基于 Redis 的存储，多实例部署使用
// 过期由 Redis TTL 负责，Clock 选项不生效
type RedisStore struct {
	cache *cache.RedisCache
	opts  Options
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(c *cache.RedisCache, opts Options) *RedisStore {
	opts.withDefaults()
	return &RedisStore{cache: c, opts: opts}
}

func (s *RedisStore) codeKey(phone string) string {
	return s.cache.Key("verify", "code", phone)
}

func (s *RedisStore) verifiedKey(phone string) string {
	return s.cache.Key("verify", "ok", phone)
}

// Issue 生成验证码，覆盖旧码
func (s *RedisStore) Issue(ctx context.Context, phone string) (string, error) {
	if phone == "" {
		return "", ErrMissingParam
	}
	code, err := s.opts.Generate()
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, s.codeKey(phone), code, s.opts.CodeTTL); err != nil {
		return "", err
	}
	return code, nil
}

// Verify 校验验证码
func (s *RedisStore) Verify(ctx context.Context, phone, code string) error {
	if phone == "" || code == "" {
		return ErrMissingParam
	}
	keys := []string{s.codeKey(phone), s.verifiedKey(phone)}
	res, err := s.cache.Run(ctx, verifyScript, keys, code, s.opts.VerifiedTTL.Milliseconds()).Int()
	if err != nil {
		return err
	}
	switch res {
	case 2:
		return nil
	case 1:
		return ErrCodeMismatch
	default:
		return ErrCodeExpired
	}
}

// IsVerified 是否已验证
func (s *RedisStore) IsVerified(ctx context.Context, phone string) (bool, error) {
	if phone == "" {
		return false, nil
	}
	return s.cache.Exists(ctx, s.verifiedKey(phone))
}

// ConsumeVerified 取走已验证状态，DEL 本身是原子的
func (s *RedisStore) ConsumeVerified(ctx context.Context, phone string) (bool, error) {
	if phone == "" {
		return false, nil
	}
	return s.cache.Take(ctx, s.verifiedKey(phone))
}

// MarkVerified 标记为已验证
func (s *RedisStore) MarkVerified(ctx context.Context, phone string) error {
	if phone == "" {
		return ErrMissingParam
	}
	return s.cache.Set(ctx, s.verifiedKey(phone), "1", s.opts.VerifiedTTL)
}
