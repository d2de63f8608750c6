package dao

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"go-unimessage/internal/errs"
	"go-unimessage/internal/pkg/sqlx"
)

type Channel struct {
	ID       int64  `gorm:"primaryKey;autoIncrement;comment:'渠道ID'"`
	Name     string `gorm:"type:VARCHAR(128);NOT NULL;comment:'渠道名称'"`
	Type     string `gorm:"type:VARCHAR(32);NOT NULL;index:idx_type;comment:'渠道类型'"`
	Provider string `gorm:"type:VARCHAR(64);comment:'供应商标签'"`
	// 账号配置（AccessKey、Secret、Host、Port 等）
	Config sqlx.JsonColumn[map[string]any] `gorm:"type:TEXT;comment:'账号配置JSON'"`
	Status int8                            `gorm:"type:TINYINT;NOT NULL;DEFAULT:1;comment:'状态: 1启用 0禁用'"`
	Ctime  int64
	Utime  int64
}

func (Channel) TableName() string {
	return "sys_channel"
}

type ChannelDAO interface {
	GetByID(ctx context.Context, id int64) (Channel, error)
}

type channelDAO struct {
	db *gorm.DB
}

func NewChannelDAO(db *gorm.DB) ChannelDAO {
	return &channelDAO{db: db}
}

func (d *channelDAO) GetByID(ctx context.Context, id int64) (Channel, error) {
	var channel Channel
	err := d.db.WithContext(ctx).First(&channel, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Channel{}, fmt.Errorf("%w: id=%d", errs.ErrChannelNotFound, id)
		}
		return Channel{}, err
	}
	return channel, nil
}
