package dao

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
	"go-unimessage/internal/pkg/sqlx"
)

type Template struct {
	ID           int64  `gorm:"primaryKey;autoIncrement;comment:'模板ID'"`
	Name         string `gorm:"type:VARCHAR(128);NOT NULL;comment:'模板名称'"`
	Code         string `gorm:"type:VARCHAR(64);NOT NULL;uniqueIndex:uniq_code;comment:'模板编码，业务方调用凭证'"`
	AppID        int64  `gorm:"type:BIGINT;index:idx_app_id;comment:'关联应用ID，0表示公共模板'"`
	ChannelID    int64  `gorm:"type:BIGINT;NOT NULL;comment:'关联渠道ID'"`
	MsgType      int8   `gorm:"type:TINYINT;comment:'消息类型: 10通知 20营销 30验证码'"`
	ThirdPartyID string `gorm:"type:VARCHAR(128);comment:'第三方模板ID'"`
	Title        string `gorm:"type:VARCHAR(256);comment:'消息标题'"`
	Content      string `gorm:"type:TEXT;comment:'内容模板，支持 ${var} 占位符'"`
	// 声明的占位符名称，JSON数组
	Variables sqlx.JsonColumn[[]string] `gorm:"type:TEXT;comment:'预期变量列表'"`
	// 去重配置
	Dedup sqlx.JsonColumn[domain.DedupConfig] `gorm:"type:VARCHAR(256);comment:'去重配置JSON'"`
	// 默认接收者
	RecipientGroupIDs sqlx.JsonColumn[[]int64] `gorm:"type:TEXT;comment:'默认接收分组ID列表'"`
	RecipientIDs      sqlx.JsonColumn[[]int64] `gorm:"type:TEXT;comment:'默认接收者ID列表'"`
	RateLimit         int                      `gorm:"type:INT;DEFAULT:0;comment:'每秒最大发送数，0表示不限制'"`
	Status            int8                     `gorm:"type:TINYINT;NOT NULL;DEFAULT:1;comment:'状态: 1启用 0禁用'"`
	Ctime             int64
	Utime             int64
}

func (Template) TableName() string {
	return "sys_template"
}

type TemplateDAO interface {
	GetByID(ctx context.Context, id int64) (Template, error)
	GetByCode(ctx context.Context, code string) (Template, error)
}

type templateDAO struct {
	db *gorm.DB
}

func NewTemplateDAO(db *gorm.DB) TemplateDAO {
	return &templateDAO{db: db}
}

func (d *templateDAO) GetByID(ctx context.Context, id int64) (Template, error) {
	var tmpl Template
	err := d.db.WithContext(ctx).First(&tmpl, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Template{}, fmt.Errorf("%w: id=%d", errs.ErrTemplateNotFound, id)
		}
		return Template{}, err
	}
	return tmpl, nil
}

func (d *templateDAO) GetByCode(ctx context.Context, code string) (Template, error) {
	var tmpl Template
	err := d.db.WithContext(ctx).Where("code = ?", code).First(&tmpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Template{}, fmt.Errorf("%w: code=%s", errs.ErrTemplateNotFound, code)
		}
		return Template{}, err
	}
	return tmpl, nil
}
