package ratelimit

import (
	"context"
	"errors"
)

// ErrWaitTimeout 在限定时间内没有等到令牌
var ErrWaitTimeout = errors.New("等待限流令牌超时")

// Limiter 按 key（模板ID）维度限流。
// maxPerSecond <= 0 表示该 key 不限流，直接放行。
type Limiter interface {
	Acquire(ctx context.Context, key int64, maxPerSecond int) error
}
