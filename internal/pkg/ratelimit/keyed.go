// Package ratelimit 按 key（IP、电话号码）分别限流的令牌桶
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Keyed 每个 key 一个令牌桶
type Keyed struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

// NewKeyed 创建限流器；ttl 内没有请求的 key 会被清理
func NewKeyed(perSecond float64, burst int, ttl time.Duration) *Keyed {
	if burst <= 0 {
		burst = 1
	}
	return &Keyed{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		ttl:     ttl,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Allow 判断 key 是否还有令牌
func (k *Keyed) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	c, ok := k.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Cleanup 清理长时间不活跃的 key，ctx 结束时退出
func (k *Keyed) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			k.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (k *Keyed) sweep() {
	k.mu.Lock()
	defer k.mu.Unlock()
	now := k.now()
	for key, c := range k.clients {
		if now.Sub(c.lastSeen) > k.ttl {
			delete(k.clients, key)
		}
	}
}

// Len 当前跟踪的 key 数量
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.clients)
}
