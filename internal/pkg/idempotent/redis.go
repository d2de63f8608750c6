package idempotent

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 24 * time.Hour

type RedisIdempotencyService struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisIdempotencyService(rdb redis.Cmdable) *RedisIdempotencyService {
	return &RedisIdempotencyService{rdb: rdb, ttl: defaultTTL}
}

func NewRedisIdempotencyServiceWithTTL(rdb redis.Cmdable, ttl time.Duration) *RedisIdempotencyService {
	return &RedisIdempotencyService{rdb: rdb, ttl: ttl}
}

func (s *RedisIdempotencyService) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	// SetNX 成功说明之前不存在
	return !ok, nil
}

func (s *RedisIdempotencyService) MExists(ctx context.Context, keys ...string) ([]bool, error) {
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.BoolCmd, 0, len(keys))
	for _, key := range keys {
		cmds = append(cmds, pipe.SetNX(ctx, key, "1", s.ttl))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	res := make([]bool, 0, len(keys))
	for _, cmd := range cmds {
		res = append(res, !cmd.Val())
	}
	return res, nil
}
