package repository

import (
	"context"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/pkg/logger"
	"go-unimessage/internal/repository/cache/local"
	"go-unimessage/internal/repository/dao"
)

type ChannelRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Channel, error)
}

type channelRepository struct {
	dao    dao.ChannelDAO
	cache  *local.Cache
	logger logger.Logger
}

func NewChannelRepository(d dao.ChannelDAO, c *local.Cache, l logger.Logger) ChannelRepository {
	return &channelRepository{dao: d, cache: c, logger: l}
}

func (r *channelRepository) GetByID(ctx context.Context, id int64) (domain.Channel, error) {
	channel, err := r.cache.GetChannel(ctx, id)
	if err == nil {
		return channel, nil
	}
	entity, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Channel{}, err
	}
	channel = toChannelDomain(entity)
	if err := r.cache.SetChannel(ctx, channel); err != nil {
		r.logger.Warn("回填渠道缓存失败", logger.Int64("id", id), logger.Error(err))
	}
	return channel, nil
}

func toChannelDomain(e dao.Channel) domain.Channel {
	channel := domain.Channel{
		ID:       e.ID,
		Name:     e.Name,
		Type:     domain.ChannelType(e.Type),
		Provider: e.Provider,
		Status:   e.Status,
		Ctime:    e.Ctime,
		Utime:    e.Utime,
	}
	if e.Config.Valid {
		channel.Config = e.Config.Val
	}
	return channel
}
