package repository

import (
	"context"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/pkg/logger"
	"go-unimessage/internal/repository/cache/local"
	"go-unimessage/internal/repository/dao"
)

type TemplateRepository interface {
	GetByID(ctx context.Context, id int64) (domain.Template, error)
	GetByCode(ctx context.Context, code string) (domain.Template, error)
}

type templateRepository struct {
	dao    dao.TemplateDAO
	cache  *local.Cache
	logger logger.Logger
}

func NewTemplateRepository(d dao.TemplateDAO, c *local.Cache, l logger.Logger) TemplateRepository {
	return &templateRepository{dao: d, cache: c, logger: l}
}

func (r *templateRepository) GetByID(ctx context.Context, id int64) (domain.Template, error) {
	tmpl, err := r.cache.GetTemplate(ctx, id)
	if err == nil {
		return tmpl, nil
	}
	entity, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Template{}, err
	}
	tmpl = toTemplateDomain(entity)
	if err := r.cache.SetTemplate(ctx, tmpl); err != nil {
		r.logger.Warn("回填模板缓存失败", logger.Int64("id", id), logger.Error(err))
	}
	return tmpl, nil
}

func (r *templateRepository) GetByCode(ctx context.Context, code string) (domain.Template, error) {
	tmpl, err := r.cache.GetTemplateByCode(ctx, code)
	if err == nil {
		return tmpl, nil
	}
	entity, err := r.dao.GetByCode(ctx, code)
	if err != nil {
		return domain.Template{}, err
	}
	tmpl = toTemplateDomain(entity)
	if err := r.cache.SetTemplate(ctx, tmpl); err != nil {
		r.logger.Warn("回填模板缓存失败", logger.String("code", code), logger.Error(err))
	}
	return tmpl, nil
}

func toTemplateDomain(e dao.Template) domain.Template {
	tmpl := domain.Template{
		ID:           e.ID,
		Name:         e.Name,
		Code:         e.Code,
		AppID:        e.AppID,
		ChannelID:    e.ChannelID,
		MsgType:      domain.MsgType(e.MsgType),
		ThirdPartyID: e.ThirdPartyID,
		Title:        e.Title,
		Content:      e.Content,
		RateLimit:    e.RateLimit,
		Status:       e.Status,
		Ctime:        e.Ctime,
		Utime:        e.Utime,
	}
	if e.Variables.Valid {
		tmpl.Variables = e.Variables.Val
	}
	if e.Dedup.Valid {
		d := e.Dedup.Val
		tmpl.Dedup = &d
	}
	if e.RecipientGroupIDs.Valid {
		tmpl.RecipientGroupIDs = e.RecipientGroupIDs.Val
	}
	if e.RecipientIDs.Valid {
		tmpl.RecipientIDs = e.RecipientIDs.Val
	}
	return tmpl
}
