package local

import (
	"context"
	"errors"

	ca "github.com/patrickmn/go-cache"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/repository/cache"
)

// Cache 进程内的模板/渠道缓存。
// 发送链路上每条消息都要读模板和渠道配置，不能每次都打到数据库。
type Cache struct {
	c *ca.Cache
}

func NewLocalCache(c *ca.Cache) *Cache {
	return &Cache{c: c}
}

func (c *Cache) GetTemplate(_ context.Context, id int64) (domain.Template, error) {
	val, ok := c.c.Get(cache.TemplateKey(id))
	if !ok {
		return domain.Template{}, cache.ErrKeyNotFound
	}
	res, ok := val.(domain.Template)
	if !ok {
		return domain.Template{}, errors.New("数据类型不正确")
	}
	return res, nil
}

func (c *Cache) GetTemplateByCode(ctx context.Context, code string) (domain.Template, error) {
	val, ok := c.c.Get(cache.TemplateCodeKey(code))
	if !ok {
		return domain.Template{}, cache.ErrKeyNotFound
	}
	id, ok := val.(int64)
	if !ok {
		return domain.Template{}, errors.New("数据类型不正确")
	}
	return c.GetTemplate(ctx, id)
}

func (c *Cache) SetTemplate(_ context.Context, tmpl domain.Template) error {
	c.c.Set(cache.TemplateKey(tmpl.ID), tmpl, cache.DefaultExpiredTime)
	c.c.Set(cache.TemplateCodeKey(tmpl.Code), tmpl.ID, cache.DefaultExpiredTime)
	return nil
}

func (c *Cache) GetChannel(_ context.Context, id int64) (domain.Channel, error) {
	val, ok := c.c.Get(cache.ChannelKey(id))
	if !ok {
		return domain.Channel{}, cache.ErrKeyNotFound
	}
	res, ok := val.(domain.Channel)
	if !ok {
		return domain.Channel{}, errors.New("数据类型不正确")
	}
	return res, nil
}

func (c *Cache) SetChannel(_ context.Context, channel domain.Channel) error {
	c.c.Set(cache.ChannelKey(channel.ID), channel, cache.DefaultExpiredTime)
	return nil
}
