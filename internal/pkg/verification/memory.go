package verification

import (
	"context"
	"sync"
	"time"
)

type codeEntry struct {
	code     string
	issuedAt time.Time
}

// MemoryStore 进程内存储，单实例部署或测试使用
type MemoryStore struct {
	opts Options

	mu       sync.Mutex
	codes    map[string]codeEntry
	verified map[string]time.Time
}

// NewMemoryStore 创建内存存储
func NewMemoryStore(opts Options) *MemoryStore {
	opts.withDefaults()
	return &MemoryStore{
		opts:     opts,
		codes:    make(map[string]codeEntry),
		verified: make(map[string]time.Time),
	}
}

// Issue 生成验证码
func (s *MemoryStore) Issue(_ context.Context, phone string) (string, error) {
	if phone == "" {
		return "", ErrMissingParam
	}
	code, err := s.opts.Generate()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[phone] = codeEntry{code: code, issuedAt: s.opts.Clock.Now()}
	return code, nil
}

// Verify 校验验证码
func (s *MemoryStore) Verify(_ context.Context, phone, code string) error {
	if phone == "" || code == "" {
		return ErrMissingParam
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Clock.Now()
	entry, ok := s.codes[phone]
	if !ok {
		return ErrCodeExpired
	}
	if now.Sub(entry.issuedAt) >= s.opts.CodeTTL {
		delete(s.codes, phone)
		return ErrCodeExpired
	}
	if entry.code != code {
		return ErrCodeMismatch
	}

	delete(s.codes, phone)
	s.verified[phone] = now
	return nil
}

// IsVerified 是否已验证
func (s *MemoryStore) IsVerified(_ context.Context, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifiedLocked(phone), nil
}

// ConsumeVerified 取走已验证状态
func (s *MemoryStore) ConsumeVerified(_ context.Context, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.verifiedLocked(phone)
	delete(s.verified, phone)
	return ok, nil
}

// MarkVerified 标记为已验证
func (s *MemoryStore) MarkVerified(_ context.Context, phone string) error {
	if phone == "" {
		return ErrMissingParam
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified[phone] = s.opts.Clock.Now()
	return nil
}

// verifiedLocked 调用方需持有锁；过期的标记顺便清理
func (s *MemoryStore) verifiedLocked(phone string) bool {
	at, ok := s.verified[phone]
	if !ok {
		return false
	}
	if s.opts.Clock.Now().Sub(at) >= s.opts.VerifiedTTL {
		delete(s.verified, phone)
		return false
	}
	return true
}

// Cleanup 定期清理过期的验证码和验证标记，ctx 结束时退出
func (s *MemoryStore) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.opts.Clock.Now()
	for phone, entry := range s.codes {
		if now.Sub(entry.issuedAt) >= s.opts.CodeTTL {
			delete(s.codes, phone)
		}
	}
	for phone, at := range s.verified {
		if now.Sub(at) >= s.opts.VerifiedTTL {
			delete(s.verified, phone)
		}
	}
}

// Len 当前保存的验证码和验证标记数量
func (s *MemoryStore) Len() (codes, verified int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes), len(s.verified)
}
