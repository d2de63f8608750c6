package dispatch

import (
	"github.com/ecodeclub/ekit/pool"

	"go-unimessage/internal/domain"
)

// ChannelPools 按渠道类型隔离的工作池。
// 慢供应商只占满自己的池子，不会拖住其他渠道的投递。
type ChannelPools struct {
	pools    map[domain.ChannelType]pool.TaskPool
	fallback pool.TaskPool
}

func NewChannelPools(pools map[domain.ChannelType]pool.TaskPool, fallback pool.TaskPool) *ChannelPools {
	return &ChannelPools{pools: pools, fallback: fallback}
}

func (p *ChannelPools) Get(typ domain.ChannelType) pool.TaskPool {
	if tp, ok := p.pools[typ]; ok {
		return tp
	}
	return p.fallback
}
