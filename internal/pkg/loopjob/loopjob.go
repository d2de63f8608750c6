package loopjob

import (
	"context"
	"errors"
	"time"

	"github.com/meoying/dlock-go"

	"go-unimessage/internal/pkg/logger"
)

// InfiniteLoop 基于分布式锁的常驻任务循环。
// 多实例部署时同一个 key 只有持锁的实例在执行业务，其余实例等待抢锁。

type InfiniteLoop struct {
	dclient       dlock.Client
	key           string
	logger        logger.Logger
	biz           func(ctx context.Context) error
	retryInterval time.Duration
	lockTimeout   time.Duration
}

func NewInfiniteLoop(
	dclient dlock.Client,
	l logger.Logger,
	// 需要循环执行的业务，ctx 被取消时整个循环退出
	biz func(ctx context.Context) error,
	key string,
) *InfiniteLoop {
	const lockTimeout = 3 * time.Second
	return &InfiniteLoop{
		dclient:       dclient,
		key:           key,
		logger:        l,
		biz:           biz,
		retryInterval: time.Minute,
		lockTimeout:   lockTimeout,
	}
}

func (l *InfiniteLoop) Run(ctx context.Context) {
	for {
		lock, err := l.dclient.NewLock(ctx, l.key, l.retryInterval)
		if err != nil {
			l.logger.Error("初始化分布式锁失败，重试", logger.Error(err))
			time.Sleep(l.retryInterval)
			continue
		}

		lockCtx, cancel := context.WithTimeout(ctx, l.lockTimeout)
		err = lock.Lock(lockCtx)
		cancel()
		if err != nil {
			// 锁被其他实例持有，等待下一轮
			time.Sleep(l.retryInterval)
			continue
		}

		err = l.bizLoop(ctx, lock)
		if err != nil {
			l.logger.Error("任务循环退出", logger.Error(err))
		}

		// 此时 ctx 可能已被取消，释放锁要脱离它的控制
		unCtx, unCancel := context.WithTimeout(context.Background(), l.lockTimeout)
		if unErr := lock.Unlock(unCtx); unErr != nil {
			l.logger.Error("释放分布式锁失败", logger.Error(unErr))
		}
		unCancel()

		err = ctx.Err()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			l.logger.Info("任务被取消，退出任务循环", logger.String("key", l.key))
			return
		}
		time.Sleep(l.retryInterval)
	}
}

func (l *InfiniteLoop) bizLoop(ctx context.Context, lock dlock.Lock) error {
	const bizTimeout = 50 * time.Second
	for {
		bizCtx, cancel := context.WithTimeout(ctx, bizTimeout)
		if err := l.biz(bizCtx); err != nil {
			l.logger.Error("业务执行失败", logger.Error(err))
		}
		cancel()

		if ctx.Err() != nil {
			return ctx.Err()
		}

		refCtx, cancel := context.WithTimeout(ctx, l.lockTimeout)
		err := lock.Refresh(refCtx)
		cancel()
		if err != nil {
			// 续约失败，让出执行权
			return err
		}
	}
}
