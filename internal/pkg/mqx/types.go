package mqx

import "context"

// Message 队列消息本体
type Message struct {
	// 消息内容，存储业务消息
	Value []byte
	// 消息主题
	Topic string
}

type Producer interface {
	Produce(ctx context.Context, msg Message) error
}

type Consumer interface {
	// Consume 阻塞拉取一条消息，队列为空时阻塞到超时并返回 ErrNoMessage
	Consume(ctx context.Context) (Message, error)
}
