package idempotent

import "context"

// IdempotencyService Exists 带有添加语义：返回 true 说明 key 已存在，
// 返回 false 说明不存在且此次调用已将 key 写入
type IdempotencyService interface {
	Exists(ctx context.Context, key string) (bool, error)
	MExists(ctx context.Context, keys ...string) ([]bool, error)
}
