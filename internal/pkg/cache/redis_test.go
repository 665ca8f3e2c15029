package cache

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisCache_Key(t *testing.T) {
	// 只拼接 key，不建立连接
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	tests := []struct {
		prefix string
		parts  []string
		want   string
	}{
		{"hihitutor", []string{"verify", "code", "61234567"}, "hihitutor:verify:code:61234567"},
		{"staging:", []string{"verify", "ok", "61234567"}, "staging:verify:ok:61234567"},
		{"", []string{"verify", "ok", "1"}, "verify:ok:1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewWithClient(client, tt.prefix).Key(tt.parts...))
	}
}
