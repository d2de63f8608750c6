package dao

import (
	"context"

	"gorm.io/gorm"

	"go-unimessage/internal/pkg/sqlx"
)

type Recipient struct {
	ID     int64  `gorm:"primaryKey;autoIncrement;comment:'接收者ID'"`
	Name   string `gorm:"type:VARCHAR(64);comment:'姓名'"`
	Mobile string `gorm:"type:VARCHAR(32);comment:'手机号'"`
	Email  string `gorm:"type:VARCHAR(128);comment:'邮箱'"`
	// 各渠道外部用户ID，key 为渠道类型
	UserIDs sqlx.JsonColumn[map[string]string] `gorm:"column:user_id;type:TEXT;comment:'各渠道用户ID JSON'"`
	Status  int8                               `gorm:"type:TINYINT;NOT NULL;DEFAULT:1;comment:'状态: 1启用 0禁用'"`
	Ctime   int64
	Utime   int64
}

func (Recipient) TableName() string {
	return "sys_recipient"
}

type RecipientGroup struct {
	ID     int64  `gorm:"primaryKey;autoIncrement;comment:'分组ID'"`
	Name   string `gorm:"type:VARCHAR(64);NOT NULL;comment:'分组名称'"`
	Status int8   `gorm:"type:TINYINT;NOT NULL;DEFAULT:1"`
	Ctime  int64
	Utime  int64
}

func (RecipientGroup) TableName() string {
	return "sys_recipient_group"
}

// RecipientGroupRel 分组与接收者的多对多关系
type RecipientGroupRel struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	GroupID     int64 `gorm:"type:BIGINT;NOT NULL;uniqueIndex:uniq_group_recipient,priority:1"`
	RecipientID int64 `gorm:"type:BIGINT;NOT NULL;uniqueIndex:uniq_group_recipient,priority:2"`
	Ctime       int64
}

func (RecipientGroupRel) TableName() string {
	return "sys_recipient_group_rel"
}

type RecipientDAO interface {
	GetByIDs(ctx context.Context, ids []int64) ([]Recipient, error)
	GetByGroupID(ctx context.Context, groupID int64) ([]Recipient, error)
}

type recipientDAO struct {
	db *gorm.DB
}

func NewRecipientDAO(db *gorm.DB) RecipientDAO {
	return &recipientDAO{db: db}
}

func (d *recipientDAO) GetByIDs(ctx context.Context, ids []int64) ([]Recipient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var recipients []Recipient
	err := d.db.WithContext(ctx).Where("id in (?)", ids).Find(&recipients).Error
	return recipients, err
}

func (d *recipientDAO) GetByGroupID(ctx context.Context, groupID int64) ([]Recipient, error) {
	var recipients []Recipient
	err := d.db.WithContext(ctx).
		Joins("JOIN sys_recipient_group_rel rel ON rel.recipient_id = sys_recipient.id").
		Where("rel.group_id = ?", groupID).
		Order("rel.id ASC").
		Find(&recipients).Error
	return recipients, err
}
