package ioc

import (
	"github.com/ecodeclub/ekit/pool"
	"github.com/spf13/viper"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/service/dispatch"
)

// InitChannelPools 按渠道类型建独立协程池，慢渠道不拖慢其他渠道。
// 配置缺省的渠道落到兜底池上。
func InitChannelPools() *dispatch.ChannelPools {
	type Config struct {
		Concurrency int            `yaml:"concurrency"`
		QueueSize   int            `yaml:"queueSize"`
		Channels    map[string]int `yaml:"channels"`
	}
	cfg := Config{
		Concurrency: 8,
		QueueSize:   256,
	}
	err := viper.UnmarshalKey("pools", &cfg)
	if err != nil {
		panic(err)
	}

	fallback := newTaskPool(cfg.Concurrency, cfg.QueueSize)
	pools := make(map[domain.ChannelType]pool.TaskPool, len(cfg.Channels))
	for name, concurrency := range cfg.Channels {
		typ := domain.ChannelType(name)
		if !typ.IsValid() {
			panic("未知渠道类型: " + name)
		}
		pools[typ] = newTaskPool(concurrency, cfg.QueueSize)
	}
	return dispatch.NewChannelPools(pools, fallback)
}

func newTaskPool(concurrency, queueSize int) pool.TaskPool {
	p, err := pool.NewOnDemandBlockTaskPool(concurrency, queueSize)
	if err != nil {
		panic(err)
	}
	if err := p.Start(); err != nil {
		panic(err)
	}
	return p
}
