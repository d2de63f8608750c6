package dao

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"go-unimessage/internal/errs"
)

type App struct {
	ID        int64  `gorm:"primaryKey;autoIncrement;comment:'应用ID'"`
	Name      string `gorm:"type:VARCHAR(128);NOT NULL;comment:'应用名称'"`
	AppKey    string `gorm:"type:VARCHAR(64);NOT NULL;uniqueIndex:uniq_app_key;comment:'应用Key'"`
	AppSecret string `gorm:"type:VARCHAR(128);NOT NULL;comment:'应用密钥'"`
	Status    int8   `gorm:"type:TINYINT;NOT NULL;DEFAULT:1;comment:'状态: 1启用 0禁用'"`
	Ctime     int64
	Utime     int64
}

func (App) TableName() string {
	return "sys_app"
}

type AppDAO interface {
	GetByID(ctx context.Context, id int64) (App, error)
	GetByKey(ctx context.Context, appKey string) (App, error)
}

type appDAO struct {
	db *gorm.DB
}

func NewAppDAO(db *gorm.DB) AppDAO {
	return &appDAO{db: db}
}

func (d *appDAO) GetByID(ctx context.Context, id int64) (App, error) {
	var app App
	err := d.db.WithContext(ctx).First(&app, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return App{}, fmt.Errorf("%w: id=%d", errs.ErrAppNotFound, id)
		}
		return App{}, err
	}
	return app, nil
}

func (d *appDAO) GetByKey(ctx context.Context, appKey string) (App, error) {
	var app App
	err := d.db.WithContext(ctx).Where("app_key = ?", appKey).First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return App{}, fmt.Errorf("%w: appKey=%s", errs.ErrAppNotFound, appKey)
		}
		return App{}, err
	}
	return app, nil
}
