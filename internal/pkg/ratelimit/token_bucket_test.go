package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiter_Unlimited(t *testing.T) {
	t.Parallel()
	l := NewTokenBucketLimiter()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Acquire(context.Background(), 1, 0))
		require.NoError(t, l.Acquire(context.Background(), 1, -1))
	}
}

func TestTokenBucketLimiter_RollingWindowCap(t *testing.T) {
	t.Parallel()
	l := NewTokenBucketLimiterWithTimeout(10 * time.Second)
	const maxPerSecond = 5
	const total = 12

	// 记录每次放行时刻，验证任意滚动 1 秒窗口内不超过限额
	times := make([]time.Time, 0, total)
	for i := 0; i < total; i++ {
		require.NoError(t, l.Acquire(context.Background(), 42, maxPerSecond))
		times = append(times, time.Now())
	}
	for i := range times {
		inWindow := 0
		for j := i; j < len(times); j++ {
			if times[j].Sub(times[i]) < time.Second {
				inWindow++
			}
		}
		// 令牌桶容量为 1，均匀放行，窗口内最多 maxPerSecond+1（窗口边沿）
		assert.LessOrEqual(t, inWindow, maxPerSecond+1)
	}
}

func TestTokenBucketLimiter_WaitTimeout(t *testing.T) {
	t.Parallel()
	l := NewTokenBucketLimiterWithTimeout(50 * time.Millisecond)
	// 1/s 的限额，第一个立即放行，第二个等不到
	require.NoError(t, l.Acquire(context.Background(), 7, 1))
	err := l.Acquire(context.Background(), 7, 1)
	assert.ErrorIs(t, err, ErrWaitTimeout)
}

func TestTokenBucketLimiter_KeysIndependent(t *testing.T) {
	t.Parallel()
	l := NewTokenBucketLimiterWithTimeout(50 * time.Millisecond)
	require.NoError(t, l.Acquire(context.Background(), 1, 1))
	// 其他 key 不受影响
	require.NoError(t, l.Acquire(context.Background(), 2, 1))
}
