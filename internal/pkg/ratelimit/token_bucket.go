package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultWaitTimeout = 3 * time.Second

// TokenBucketLimiter 每个 key 一个令牌桶，桶之间互不影响。
// 桶容量为 1、速率为 maxPerSecond，发送被平滑到均匀间隔，
// 任意滚动 1 秒窗口内的放行数不会超过 maxPerSecond。
type TokenBucketLimiter struct {
	mu          sync.RWMutex
	buckets     map[int64]*rate.Limiter
	waitTimeout time.Duration
}

func NewTokenBucketLimiter() *TokenBucketLimiter {
	return NewTokenBucketLimiterWithTimeout(defaultWaitTimeout)
}

func NewTokenBucketLimiterWithTimeout(waitTimeout time.Duration) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		buckets:     make(map[int64]*rate.Limiter),
		waitTimeout: waitTimeout,
	}
}

func (l *TokenBucketLimiter) Acquire(ctx context.Context, key int64, maxPerSecond int) error {
	if maxPerSecond <= 0 {
		return nil
	}
	bucket := l.bucket(key, maxPerSecond)
	waitCtx, cancel := context.WithTimeout(ctx, l.waitTimeout)
	defer cancel()
	if err := bucket.Wait(waitCtx); err != nil {
		return fmt.Errorf("%w: key=%d, 限额=%d/s", ErrWaitTimeout, key, maxPerSecond)
	}
	return nil
}

func (l *TokenBucketLimiter) bucket(key int64, maxPerSecond int) *rate.Limiter {
	l.mu.RLock()
	bucket, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		// 模板限额被修改后热更新
		if bucket.Limit() != rate.Limit(maxPerSecond) {
			bucket.SetLimit(rate.Limit(maxPerSecond))
		}
		return bucket
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if bucket, ok = l.buckets[key]; ok {
		return bucket
	}
	bucket = rate.NewLimiter(rate.Limit(maxPerSecond), 1)
	l.buckets[key] = bucket
	return bucket
}
