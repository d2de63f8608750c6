package adapter

import (
	"context"

	"go-unimessage/internal/domain"
)

// Adapter 渠道适配器，把一条渲染好的消息投递给具体供应商。
// 实现必须无状态且并发安全，分发器会在工作池里并发调用。
type Adapter interface {
	Send(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error)
}

// Builder 由渠道配置构造适配器，配置不合法时返回错误
type Builder func(channel domain.Channel) (Adapter, error)
