package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
)

const uniqueConflictErrNo uint16 = 1062

type Batch struct {
	ID            int64  `gorm:"primaryKey;comment:'批次ID，雪花算法生成'"`
	BatchNo       string `gorm:"type:VARCHAR(64);NOT NULL;uniqueIndex:uniq_batch_no;comment:'业务批次号'"`
	AppID         int64  `gorm:"type:BIGINT;index:idx_app_id;comment:'调用方应用ID'"`
	TemplateID    int64  `gorm:"type:BIGINT;NOT NULL;comment:'使用的模板ID'"`
	TemplateName  string `gorm:"type:VARCHAR(128);comment:'模板名称快照'"`
	ChannelID     int64  `gorm:"type:BIGINT;NOT NULL;index:idx_channel_id;comment:'实际发送渠道ID'"`
	ChannelName   string `gorm:"type:VARCHAR(128);comment:'渠道名称快照'"`
	ChannelType   string `gorm:"type:VARCHAR(32);NOT NULL;comment:'渠道类型'"`
	MsgType       int8   `gorm:"type:TINYINT;comment:'消息类型'"`
	Title         string `gorm:"type:VARCHAR(256);comment:'最终发送标题'"`
	Content       string `gorm:"type:TEXT;comment:'模板内容快照'"`
	ContentParams string `gorm:"type:TEXT;comment:'业务方传入的参数JSON'"`
	TotalCount    int    `gorm:"type:INT;NOT NULL;DEFAULT:0;comment:'总发送人数'"`
	SuccessCount  int    `gorm:"type:INT;NOT NULL;DEFAULT:0;comment:'成功人数'"`
	FailCount     int    `gorm:"type:INT;NOT NULL;DEFAULT:0;comment:'失败人数'"`
	Status        int8   `gorm:"type:TINYINT;NOT NULL;DEFAULT:0;index:idx_status;comment:'批次状态: 0处理中 10全部成功 20部分成功 30全部失败'"`
	Ctime         int64
	Utime         int64
}

func (Batch) TableName() string {
	return "log_msg_batch"
}

type Detail struct {
	ID              int64  `gorm:"primaryKey;autoIncrement;comment:'详情ID'"`
	BatchID         int64  `gorm:"type:BIGINT;NOT NULL;index:idx_batch_id;comment:'关联批次ID'"`
	Recipient       string `gorm:"type:VARCHAR(256);NOT NULL;index:idx_recipient;comment:'接收地址(手机号/邮箱/OpenID/UserId)'"`
	RecipientName   string `gorm:"type:VARCHAR(64);comment:'接收者名称'"`
	Content         string `gorm:"type:TEXT;comment:'渲染后的内容快照'"`
	Status          int8   `gorm:"type:TINYINT;NOT NULL;DEFAULT:10;index:idx_status;comment:'发送状态: 10发送中 20发送成功 30发送失败'"`
	ThirdPartyMsgID string `gorm:"type:VARCHAR(128);comment:'第三方返回的消息ID'"`
	ErrorMsg        string `gorm:"type:VARCHAR(512);comment:'失败原因'"`
	RetryCount      int    `gorm:"type:INT;NOT NULL;DEFAULT:0;comment:'重试次数'"`
	SendTime        int64  `gorm:"comment:'实际发送时间'"`
	Ctime           int64
	Utime           int64
}

func (Detail) TableName() string {
	return "log_msg_detail"
}

// BatchQuery 批次分页查询条件
type BatchQuery struct {
	AppID     int64
	ChannelID int64
	Status    *int8
	BatchNo   string // 模糊匹配
	StartTime int64
	EndTime   int64
	Offset    int
	Limit     int
}

// DetailQuery 详情分页查询条件
type DetailQuery struct {
	BatchID   int64
	Recipient string // 模糊匹配
	Status    *int8
	Offset    int
	Limit     int
}

type BatchDAO interface {
	// CreateWithDetails 在一个事务里创建批次与全部详情，要么全部落库要么一行不留
	CreateWithDetails(ctx context.Context, batch Batch, details []Detail) (Batch, []Detail, error)
	GetByID(ctx context.Context, id int64) (Batch, error)
	GetByBatchNo(ctx context.Context, batchNo string) (Batch, error)
	Find(ctx context.Context, q BatchQuery) ([]Batch, int64, error)
	Statistics(ctx context.Context, appID, startTime, endTime int64) (total, success int64, err error)

	GetDetailByID(ctx context.Context, id int64) (Detail, error)
	FindDetails(ctx context.Context, q DetailQuery) ([]Detail, int64, error)
	FindDetailsByBatchID(ctx context.Context, batchID int64) ([]Detail, error)

	// MarkDetailSuccess 详情 SENDING -> SUCCESS，并原子累加批次成功数、重推导批次状态
	MarkDetailSuccess(ctx context.Context, detailID int64, msgID, content string, sendTime int64) error
	// MarkDetailFailed 详情 SENDING -> FAILED，并原子累加批次失败数、重推导批次状态
	MarkDetailFailed(ctx context.Context, detailID int64, errorMsg, content string, sendTime int64) error
	// MarkDetailRetrying 详情 FAILED -> SENDING，重试次数+1，批次失败数-1 并回到处理中
	MarkDetailRetrying(ctx context.Context, detailID int64) error
}

type batchDAO struct {
	db *gorm.DB
}

func NewBatchDAO(db *gorm.DB) BatchDAO {
	return &batchDAO{db: db}
}

func (d *batchDAO) CreateWithDetails(ctx context.Context, batch Batch, details []Detail) (Batch, []Detail, error) {
	now := time.Now().UnixMilli()
	batch.Ctime, batch.Utime = now, now
	for i := range details {
		details[i].Ctime, details[i].Utime = now, now
	}

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}
		for i := range details {
			details[i].BatchID = batch.ID
		}
		if len(details) == 0 {
			return nil
		}
		return tx.Create(&details).Error
	})
	if err != nil {
		if isUniqueConflict(err) {
			return Batch{}, nil, fmt.Errorf("%w: batchNo=%s", errs.ErrBatchDuplicate, batch.BatchNo)
		}
		return Batch{}, nil, fmt.Errorf("%w: %w", errs.ErrCreateBatchFailed, err)
	}
	return batch, details, nil
}

func (d *batchDAO) GetByID(ctx context.Context, id int64) (Batch, error) {
	var batch Batch
	err := d.db.WithContext(ctx).First(&batch, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Batch{}, fmt.Errorf("%w: id=%d", errs.ErrBatchNotFound, id)
		}
		return Batch{}, err
	}
	return batch, nil
}

func (d *batchDAO) GetByBatchNo(ctx context.Context, batchNo string) (Batch, error) {
	var batch Batch
	err := d.db.WithContext(ctx).Where("batch_no = ?", batchNo).First(&batch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Batch{}, fmt.Errorf("%w: batchNo=%s", errs.ErrBatchNotFound, batchNo)
		}
		return Batch{}, err
	}
	return batch, nil
}

func (d *batchDAO) Find(ctx context.Context, q BatchQuery) ([]Batch, int64, error) {
	query := d.db.WithContext(ctx).Model(&Batch{})
	if q.AppID > 0 {
		query = query.Where("app_id = ?", q.AppID)
	}
	if q.ChannelID > 0 {
		query = query.Where("channel_id = ?", q.ChannelID)
	}
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}
	if q.BatchNo != "" {
		query = query.Where("batch_no LIKE ?", "%"+q.BatchNo+"%")
	}
	if q.StartTime > 0 {
		query = query.Where("ctime >= ?", q.StartTime)
	}
	if q.EndTime > 0 {
		query = query.Where("ctime <= ?", q.EndTime)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var batches []Batch
	err := query.Order("ctime DESC").Offset(q.Offset).Limit(q.Limit).Find(&batches).Error
	return batches, total, err
}

func (d *batchDAO) Statistics(ctx context.Context, appID, startTime, endTime int64) (int64, int64, error) {
	query := d.db.WithContext(ctx).Model(&Batch{})
	if appID > 0 {
		query = query.Where("app_id = ?", appID)
	}
	if startTime > 0 {
		query = query.Where("ctime >= ?", startTime)
	}
	if endTime > 0 {
		query = query.Where("ctime <= ?", endTime)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, 0, err
	}
	var success int64
	err := query.Where("status = ?", int8(domain.BatchStatusAllSuccess)).Count(&success).Error
	return total, success, err
}

func (d *batchDAO) GetDetailByID(ctx context.Context, id int64) (Detail, error) {
	var detail Detail
	err := d.db.WithContext(ctx).First(&detail, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Detail{}, fmt.Errorf("%w: id=%d", errs.ErrDetailNotFound, id)
		}
		return Detail{}, err
	}
	return detail, nil
}

func (d *batchDAO) FindDetails(ctx context.Context, q DetailQuery) ([]Detail, int64, error) {
	query := d.db.WithContext(ctx).Model(&Detail{})
	if q.BatchID > 0 {
		query = query.Where("batch_id = ?", q.BatchID)
	}
	if q.Recipient != "" {
		query = query.Where("recipient LIKE ?", "%"+q.Recipient+"%")
	}
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var details []Detail
	err := query.Order("id ASC").Offset(q.Offset).Limit(q.Limit).Find(&details).Error
	return details, total, err
}

func (d *batchDAO) FindDetailsByBatchID(ctx context.Context, batchID int64) ([]Detail, error) {
	var details []Detail
	err := d.db.WithContext(ctx).Where("batch_id = ?", batchID).Order("id ASC").Find(&details).Error
	return details, err
}

func (d *batchDAO) MarkDetailSuccess(ctx context.Context, detailID int64, msgID, content string, sendTime int64) error {
	return d.markDetailTerminal(ctx, detailID, map[string]any{
		"status":             int8(domain.DetailStatusSuccess),
		"third_party_msg_id": msgID,
		"content":            content,
		"send_time":          sendTime,
		"utime":              time.Now().UnixMilli(),
	}, "success_count")
}

func (d *batchDAO) MarkDetailFailed(ctx context.Context, detailID int64, errorMsg, content string, sendTime int64) error {
	return d.markDetailTerminal(ctx, detailID, map[string]any{
		"status":    int8(domain.DetailStatusFailed),
		"error_msg": errorMsg,
		"content":   content,
		"send_time": sendTime,
		"utime":     time.Now().UnixMilli(),
	}, "fail_count")
}

// markDetailTerminal 详情进入终态并维护批次计数。
// 详情行上带 status=SENDING 的 CAS，保证一次投递只会累加一次计数；
// 批次计数用 SQL 原子自增，状态用 CASE 表达式一步重推导，
// 读者在任何时刻都不会看到 success_count+fail_count 超过 total_count。
func (d *batchDAO) markDetailTerminal(ctx context.Context, detailID int64, updates map[string]any, counterColumn string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var detail Detail
		if err := tx.Select("id", "batch_id").First(&detail, detailID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id=%d", errs.ErrDetailNotFound, detailID)
			}
			return err
		}

		res := tx.Model(&Detail{}).
			Where("id = ? AND status = ?", detailID, int8(domain.DetailStatusSending)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected < 1 {
			return fmt.Errorf("%w: 详情 %d 不在发送中状态", errs.ErrInvalidState, detailID)
		}

		err := tx.Model(&Batch{}).
			Where("id = ?", detail.BatchID).
			Updates(map[string]any{
				counterColumn: gorm.Expr(counterColumn + " + 1"),
				"utime":       time.Now().UnixMilli(),
			}).Error
		if err != nil {
			return err
		}

		return d.rederiveBatchStatus(tx, detail.BatchID)
	})
}

func (d *batchDAO) MarkDetailRetrying(ctx context.Context, detailID int64) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var detail Detail
		if err := tx.Select("id", "batch_id").First(&detail, detailID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id=%d", errs.ErrDetailNotFound, detailID)
			}
			return err
		}

		now := time.Now().UnixMilli()
		res := tx.Model(&Detail{}).
			Where("id = ? AND status = ?", detailID, int8(domain.DetailStatusFailed)).
			Updates(map[string]any{
				"status":      int8(domain.DetailStatusSending),
				"error_msg":   "",
				"retry_count": gorm.Expr("retry_count + 1"),
				"utime":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected < 1 {
			return fmt.Errorf("%w: 仅发送失败的详情允许重试", errs.ErrInvalidState)
		}

		// 批次离开终态，失败数让位给在途的重试
		return tx.Model(&Batch{}).
			Where("id = ?", detail.BatchID).
			Updates(map[string]any{
				"fail_count": gorm.Expr("fail_count - 1"),
				"status":     int8(domain.BatchStatusPending),
				"utime":      now,
			}).Error
	})
}

// rederiveBatchStatus 全部详情进入终态后按计数推导批次状态
func (d *batchDAO) rederiveBatchStatus(tx *gorm.DB, batchID int64) error {
	return tx.Exec(`UPDATE log_msg_batch
		SET status = CASE
			WHEN fail_count = 0 THEN ?
			WHEN success_count = 0 THEN ?
			ELSE ?
		END
		WHERE id = ? AND success_count + fail_count >= total_count`,
		int8(domain.BatchStatusAllSuccess),
		int8(domain.BatchStatusAllFailed),
		int8(domain.BatchStatusPartial),
		batchID,
	).Error
}

func isUniqueConflict(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == uniqueConflictErrNo
	}
	return false
}
