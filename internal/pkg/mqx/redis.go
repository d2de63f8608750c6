package mqx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// 用 Redis List 实现的轻量队列，LPUSH 入队、BRPOP 出队。
// 批次分发对队列的要求只有解耦和削峰，不需要引入独立的消息中间件。

var ErrNoMessage = errors.New("队列暂无消息")

const defaultBlockTimeout = time.Second

type RedisListProducer struct {
	rdb redis.Cmdable
}

func NewRedisListProducer(rdb redis.Cmdable) *RedisListProducer {
	return &RedisListProducer{rdb: rdb}
}

func (p *RedisListProducer) Produce(ctx context.Context, msg Message) error {
	return p.rdb.LPush(ctx, msg.Topic, msg.Value).Err()
}

type RedisListConsumer struct {
	rdb          redis.Cmdable
	topic        string
	blockTimeout time.Duration
}

func NewRedisListConsumer(rdb redis.Cmdable, topic string) *RedisListConsumer {
	return &RedisListConsumer{rdb: rdb, topic: topic, blockTimeout: defaultBlockTimeout}
}

func (c *RedisListConsumer) Consume(ctx context.Context) (Message, error) {
	res, err := c.rdb.BRPop(ctx, c.blockTimeout, c.topic).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Message{}, ErrNoMessage
		}
		return Message{}, err
	}
	// BRPOP 返回 [key, value]
	const kvLen = 2
	if len(res) != kvLen {
		return Message{}, ErrNoMessage
	}
	return Message{Topic: c.topic, Value: []byte(res[1])}, nil
}
