package ratelimiter

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

// TokenBucketRateLimiter keeps one token bucket per key. Buckets idle for
// longer than the TTL are evicted.
type TokenBucketRateLimiter struct {
	limiters *ttlcache.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func NewTokenBucketRateLimiter(perSecond float64, burst int, ttl time.Duration) *TokenBucketRateLimiter {
	rl := &TokenBucketRateLimiter{
		limiters: ttlcache.New[string, *rate.Limiter](
			ttlcache.WithTTL[string, *rate.Limiter](ttl),
		),
		limit: rate.Limit(perSecond),
		burst: burst,
	}
	go rl.limiters.Start()
	return rl
}

// Allow takes a token for key. When none is left it reports how long until
// the next one.
func (rl *TokenBucketRateLimiter) Allow(key string) (bool, time.Duration) {
	item, _ := rl.limiters.GetOrSet(key, rate.NewLimiter(rl.limit, rl.burst))
	limiter := item.Value()

	if limiter.Allow() {
		return true, 0
	}

	r := limiter.Reserve()
	delay := r.Delay()
	r.Cancel()
	return false, delay
}

func (rl *TokenBucketRateLimiter) Close() {
	rl.limiters.Stop()
}
