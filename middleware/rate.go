package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/benny-conn/limiters"

	"github.com/bkclothing/bk-site/service/logger"
	"github.com/bkclothing/bk-site/service/redis"
)

// KeyRateLimiter allows rateAmount requests per key every rateDuration. A key's bucket holds rateAmount
// tokens and gets one back every rateDuration/rateAmount. Buckets live in redis when a cache is given,
// so every instance of the site shares them; otherwise they are kept in memory.
type KeyRateLimiter struct {
	name         string
	rateDuration time.Duration
	rateAmount   int64
	reg          *limiters.Registry
	cache        *redis.Cache
	clock        limiters.Clock
	logger       *limiters.StdLogger
}

// NewKeyRateLimiter creates a limiter. cache may be nil.
func NewKeyRateLimiter(ctx context.Context, cache *redis.Cache, name string, rateAmount int64, every time.Duration) *KeyRateLimiter {
	backend := "memory"
	if cache != nil {
		backend = "redis"
	}
	logger.For(ctx).Infof("rate limiter %s: %d every %s (%s)", name, rateAmount, every, backend)

	return &KeyRateLimiter{
		name:         name,
		rateDuration: every,
		rateAmount:   rateAmount,
		reg:          limiters.NewRegistry(),
		cache:        cache,
		clock:        limiters.NewSystemClock(),
		logger:       limiters.NewStdLogger(),
	}
}

// ForKey reports whether the key may proceed and, if not, how long until it can.
func (i *KeyRateLimiter) ForKey(ctx context.Context, key string) (bool, time.Duration, error) {
	now := i.clock.Now()
	// Buckets untouched for a whole window are full again and can go.
	i.reg.DeleteExpired(now)

	backend, err := i.backendFor(ctx, key)
	if err != nil {
		return false, 0, fmt.Errorf("rate limiting err: %w", err)
	}

	bucket := i.reg.GetOrCreate(key, func() interface{} {
		return limiters.NewTokenBucket(i.rateAmount, i.refillRate(), limiters.NewLockNoop(), backend, i.clock, i.logger)
	}, i.rateDuration, now)

	w, err := bucket.(*limiters.TokenBucket).Limit(ctx)
	if err == limiters.ErrLimitExhausted {
		return false, w, nil
	} else if err != nil {
		// The limiter failed. This error should be logged and examined.
		logger.For(ctx).Errorf("rate limiter %s failed: %s", i.name, err)
		return false, 0, fmt.Errorf("rate limiting err: %w", err)
	}

	return true, 0, nil
}

// refillRate is how long it takes for a single token to return to a bucket.
func (i *KeyRateLimiter) refillRate() time.Duration {
	if i.rateAmount <= 1 {
		return i.rateDuration
	}
	return i.rateDuration / time.Duration(i.rateAmount)
}

func (i *KeyRateLimiter) backendFor(ctx context.Context, key string) (limiters.TokenBucketStateBackend, error) {
	if i.cache == nil {
		return limiters.NewTokenBucketInMemory(), nil
	}

	client, err := i.cache.Client(ctx)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("%s:%s", i.name, key)
	if p := i.cache.Prefix(); p != "" {
		prefix = p + ":" + prefix
	}

	return limiters.NewTokenBucketRedis(client, prefix, i.rateDuration, true), nil
}
