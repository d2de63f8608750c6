package repository

import (
	"context"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/repository/dao"
)

type AppRepository interface {
	GetByID(ctx context.Context, id int64) (domain.App, error)
	GetByKey(ctx context.Context, appKey string) (domain.App, error)
}

type appRepository struct {
	dao dao.AppDAO
}

func NewAppRepository(d dao.AppDAO) AppRepository {
	return &appRepository{dao: d}
}

func (r *appRepository) GetByID(ctx context.Context, id int64) (domain.App, error) {
	entity, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.App{}, err
	}
	return toAppDomain(entity), nil
}

func (r *appRepository) GetByKey(ctx context.Context, appKey string) (domain.App, error) {
	entity, err := r.dao.GetByKey(ctx, appKey)
	if err != nil {
		return domain.App{}, err
	}
	return toAppDomain(entity), nil
}

func toAppDomain(e dao.App) domain.App {
	return domain.App{
		ID:        e.ID,
		Name:      e.Name,
		AppKey:    e.AppKey,
		AppSecret: e.AppSecret,
		Status:    e.Status,
		Ctime:     e.Ctime,
		Utime:     e.Utime,
	}
}
