package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedAllow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	k := NewKeyed(1.0/60, 2, time.Minute)
	k.now = func() time.Time { return now }

	assert.True(t, k.Allow("61234567"))
	assert.True(t, k.Allow("61234567"))
	assert.False(t, k.Allow("61234567"), "burst exhausted")
	assert.True(t, k.Allow("98765432"), "other keys are independent")

	now = now.Add(61 * time.Second)
	assert.True(t, k.Allow("61234567"), "token refilled")
}

func TestKeyedSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	k := NewKeyed(1, 1, time.Minute)
	k.now = func() time.Time { return now }

	k.Allow("a")
	now = now.Add(30 * time.Second)
	k.Allow("b")
	now = now.Add(45 * time.Second)
	k.sweep()

	assert.Equal(t, 1, k.Len())
}
