package ioc

import (
	"time"

	"github.com/robfig/cron/v3"

	"go-unimessage/internal/pkg/dedup"
)

// InitCron 注册定时任务：每分钟清理一次去重守卫里过期的时间窗
func InitCron(guard *dedup.Guard) *cron.Cron {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc("0 * * * * *", func() {
		guard.Purge(time.Now())
	})
	if err != nil {
		panic(err)
	}
	return c
}
