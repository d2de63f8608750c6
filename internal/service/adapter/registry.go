package adapter

import (
	"fmt"
	"sync"
	"time"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
	"go-unimessage/internal/pkg/logger"
)

const defaultSendTimeout = 15 * time.Second

// Decorator 包装适配器，用于挂接监控、链路追踪等
type Decorator func(typ domain.ChannelType, next Adapter) Adapter

// Registry 渠道类型到适配器的封闭映射。
// 全部渠道类型在构造时注册完毕，运行期遇到未注册类型直接报 ErrUnknownChannel。
// 构建好的适配器按渠道实例缓存，渠道配置变更（utime 前进）后重建。
type Registry struct {
	builders   map[domain.ChannelType]Builder
	decorators []Decorator
	timeout    time.Duration
	logger     logger.Logger

	mu    sync.RWMutex
	cache map[int64]cacheEntry
}

type cacheEntry struct {
	adapter Adapter
	utime   int64
}

func NewRegistry(l logger.Logger, decorators ...Decorator) *Registry {
	r := &Registry{
		builders:   make(map[domain.ChannelType]Builder),
		decorators: decorators,
		timeout:    defaultSendTimeout,
		logger:     l,
		cache:      make(map[int64]cacheEntry),
	}
	r.builders[domain.ChannelSMS] = NewAliyunSMSAdapter
	r.builders[domain.ChannelEmail] = NewEmailAdapter
	r.builders[domain.ChannelWechatOfficial] = NewWechatOfficialAdapter
	r.builders[domain.ChannelWechatWork] = NewWechatWorkAdapter
	r.builders[domain.ChannelDingTalk] = NewDingTalkAdapter
	r.builders[domain.ChannelFeishu] = NewFeishuAdapter
	r.builders[domain.ChannelTelegram] = NewTelegramAdapter
	r.builders[domain.ChannelSlack] = NewSlackAdapter
	r.builders[domain.ChannelTencentSMS] = NewTencentSMSAdapter
	r.builders[domain.ChannelTwilio] = NewTwilioAdapter
	r.builders[domain.ChannelWebhook] = NewWebhookAdapter
	return r
}

// Register 覆盖某类型的构造器，测试时注入假适配器用
func (r *Registry) Register(typ domain.ChannelType, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[typ] = b
	// 已缓存的实例可能出自旧构造器
	r.cache = make(map[int64]cacheEntry)
}

func (r *Registry) Get(channel domain.Channel) (Adapter, error) {
	r.mu.RLock()
	entry, ok := r.cache[channel.ID]
	r.mu.RUnlock()
	if ok && entry.utime == channel.Utime {
		return entry.adapter, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok = r.cache[channel.ID]; ok && entry.utime == channel.Utime {
		return entry.adapter, nil
	}
	builder, ok := r.builders[channel.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownChannel, channel.Type)
	}
	adapter, err := builder(channel)
	if err != nil {
		return nil, fmt.Errorf("构建渠道 %d 适配器失败: %w", channel.ID, err)
	}
	for _, d := range r.decorators {
		adapter = d(channel.Type, adapter)
	}
	adapter = newTimeoutAdapter(adapter, r.timeout)
	r.cache[channel.ID] = cacheEntry{adapter: adapter, utime: channel.Utime}
	r.logger.Info("渠道适配器已构建",
		logger.Int64("channelId", channel.ID),
		logger.String("type", channel.Type.String()))
	return adapter, nil
}
