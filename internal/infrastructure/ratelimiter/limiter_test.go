package ratelimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucket_BurstThenReject(t *testing.T) {
	rl := NewTokenBucketRateLimiter(1, 3, time.Minute)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("10.0.0.1")
		assert.True(t, allowed, "request %d", i)
	}

	allowed, retryAfter := rl.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, time.Second)
}

func TestTokenBucket_KeysAreIndependent(t *testing.T) {
	rl := NewTokenBucketRateLimiter(1, 1, time.Minute)
	defer rl.Close()

	allowed, _ := rl.Allow("a")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("a")
	assert.False(t, allowed)

	allowed, _ = rl.Allow("b")
	assert.True(t, allowed)
}
