package event

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/meoying/dlock-go"
	"golang.org/x/sync/errgroup"

	"go-unimessage/internal/pkg/logger"
	"go-unimessage/internal/pkg/loopjob"
	"go-unimessage/internal/pkg/mqx"
	"go-unimessage/internal/service/dispatch"
)

const defaultWorkers = 4

type batchEvent struct {
	BatchID int64 `json:"batchId"`
}

// BatchConsumer 批次分发消费者。
// 多实例部署时靠分布式锁选主，同一时刻只有一个实例在拉队列，
// 拉到的批次交给分发服务处理，队列空了就让出本轮执行。
type BatchConsumer struct {
	consumer mqx.Consumer
	svc      dispatch.Service
	loop     *loopjob.InfiniteLoop
	workers  int
	logger   logger.Logger
}

func NewBatchConsumer(dclient dlock.Client, consumer mqx.Consumer, svc dispatch.Service, l logger.Logger) *BatchConsumer {
	c := &BatchConsumer{
		consumer: consumer,
		svc:      svc,
		workers:  defaultWorkers,
		logger:   l,
	}
	c.loop = loopjob.NewInfiniteLoop(dclient, l, c.consumeBatch, "consumer:"+dispatch.BatchTopic)
	return c
}

// Start 启动消费循环，ctx 取消时退出
func (c *BatchConsumer) Start(ctx context.Context) {
	go c.loop.Run(ctx)
}

func (c *BatchConsumer) consumeBatch(ctx context.Context) error {
	var eg errgroup.Group
	for i := 0; i < c.workers; i++ {
		eg.Go(func() error {
			for {
				msg, err := c.consumer.Consume(ctx)
				if err != nil {
					if errors.Is(err, mqx.ErrNoMessage) || ctx.Err() != nil {
						return nil
					}
					return err
				}
				c.handle(ctx, msg)
			}
		})
	}
	return eg.Wait()
}

func (c *BatchConsumer) handle(ctx context.Context, msg mqx.Message) {
	var evt batchEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		c.logger.Error("批次事件反序列化失败", logger.String("payload", string(msg.Value)), logger.Error(err))
		return
	}
	if err := c.svc.Process(ctx, evt.BatchID); err != nil {
		c.logger.Error("处理批次失败", logger.Int64("batchId", evt.BatchID), logger.Error(err))
	}
}
