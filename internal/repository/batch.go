package repository

import (
	"context"
	"encoding/json"

	"github.com/ecodeclub/ekit/slice"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/pkg/logger"
	"go-unimessage/internal/repository/dao"
)

// BatchQuery 批次分页查询条件
type BatchQuery struct {
	AppID     int64
	ChannelID int64
	Status    *domain.BatchStatus
	BatchNo   string
	StartTime int64
	EndTime   int64
	Offset    int
	Limit     int
}

// DetailQuery 详情分页查询条件
type DetailQuery struct {
	BatchID   int64
	Recipient string
	Status    *domain.DetailStatus
	Offset    int
	Limit     int
}

// Statistics 发送量统计，失败数 = 总数 - 全部成功数
type Statistics struct {
	TotalCount   int64 `json:"totalCount"`
	SuccessCount int64 `json:"successCount"`
	FailCount    int64 `json:"failCount"`
}

type BatchRepository interface {
	// Create 批次与详情一并落库，返回带ID的批次和详情
	Create(ctx context.Context, batch domain.Batch, details []domain.Detail) (domain.Batch, []domain.Detail, error)
	GetByID(ctx context.Context, id int64) (domain.Batch, error)
	GetByBatchNo(ctx context.Context, batchNo string) (domain.Batch, error)
	Find(ctx context.Context, q BatchQuery) ([]domain.Batch, int64, error)
	Statistics(ctx context.Context, appID, startTime, endTime int64) (Statistics, error)

	GetDetailByID(ctx context.Context, id int64) (domain.Detail, error)
	FindDetails(ctx context.Context, q DetailQuery) ([]domain.Detail, int64, error)
	FindDetailsByBatchID(ctx context.Context, batchID int64) ([]domain.Detail, error)

	MarkDetailSuccess(ctx context.Context, detailID int64, msgID, content string, sendTime int64) error
	MarkDetailFailed(ctx context.Context, detailID int64, errorMsg, content string, sendTime int64) error
	MarkDetailRetrying(ctx context.Context, detailID int64) error
}

type batchRepository struct {
	dao    dao.BatchDAO
	logger logger.Logger
}

func NewBatchRepository(d dao.BatchDAO, l logger.Logger) BatchRepository {
	return &batchRepository{dao: d, logger: l}
}

func (r *batchRepository) Create(ctx context.Context, batch domain.Batch, details []domain.Detail) (domain.Batch, []domain.Detail, error) {
	entity, detailEntities, err := r.dao.CreateWithDetails(ctx,
		r.toBatchEntity(batch),
		slice.Map(details, func(_ int, src domain.Detail) dao.Detail {
			return toDetailEntity(src)
		}),
	)
	if err != nil {
		return domain.Batch{}, nil, err
	}
	return r.toBatchDomain(entity), slice.Map(detailEntities, func(_ int, src dao.Detail) domain.Detail {
		return toDetailDomain(src)
	}), nil
}

func (r *batchRepository) GetByID(ctx context.Context, id int64) (domain.Batch, error) {
	entity, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Batch{}, err
	}
	return r.toBatchDomain(entity), nil
}

func (r *batchRepository) GetByBatchNo(ctx context.Context, batchNo string) (domain.Batch, error) {
	entity, err := r.dao.GetByBatchNo(ctx, batchNo)
	if err != nil {
		return domain.Batch{}, err
	}
	return r.toBatchDomain(entity), nil
}

func (r *batchRepository) Find(ctx context.Context, q BatchQuery) ([]domain.Batch, int64, error) {
	daoQuery := dao.BatchQuery{
		AppID:     q.AppID,
		ChannelID: q.ChannelID,
		BatchNo:   q.BatchNo,
		StartTime: q.StartTime,
		EndTime:   q.EndTime,
		Offset:    q.Offset,
		Limit:     q.Limit,
	}
	if q.Status != nil {
		status := int8(*q.Status)
		daoQuery.Status = &status
	}
	entities, total, err := r.dao.Find(ctx, daoQuery)
	if err != nil {
		return nil, 0, err
	}
	return slice.Map(entities, func(_ int, src dao.Batch) domain.Batch {
		return r.toBatchDomain(src)
	}), total, nil
}

func (r *batchRepository) Statistics(ctx context.Context, appID, startTime, endTime int64) (Statistics, error) {
	total, success, err := r.dao.Statistics(ctx, appID, startTime, endTime)
	if err != nil {
		return Statistics{}, err
	}
	return Statistics{TotalCount: total, SuccessCount: success, FailCount: total - success}, nil
}

func (r *batchRepository) GetDetailByID(ctx context.Context, id int64) (domain.Detail, error) {
	entity, err := r.dao.GetDetailByID(ctx, id)
	if err != nil {
		return domain.Detail{}, err
	}
	return toDetailDomain(entity), nil
}

func (r *batchRepository) FindDetails(ctx context.Context, q DetailQuery) ([]domain.Detail, int64, error) {
	daoQuery := dao.DetailQuery{
		BatchID:   q.BatchID,
		Recipient: q.Recipient,
		Offset:    q.Offset,
		Limit:     q.Limit,
	}
	if q.Status != nil {
		status := int8(*q.Status)
		daoQuery.Status = &status
	}
	entities, total, err := r.dao.FindDetails(ctx, daoQuery)
	if err != nil {
		return nil, 0, err
	}
	return slice.Map(entities, func(_ int, src dao.Detail) domain.Detail {
		return toDetailDomain(src)
	}), total, nil
}

func (r *batchRepository) FindDetailsByBatchID(ctx context.Context, batchID int64) ([]domain.Detail, error) {
	entities, err := r.dao.FindDetailsByBatchID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return slice.Map(entities, func(_ int, src dao.Detail) domain.Detail {
		return toDetailDomain(src)
	}), nil
}

func (r *batchRepository) MarkDetailSuccess(ctx context.Context, detailID int64, msgID, content string, sendTime int64) error {
	return r.dao.MarkDetailSuccess(ctx, detailID, msgID, content, sendTime)
}

func (r *batchRepository) MarkDetailFailed(ctx context.Context, detailID int64, errorMsg, content string, sendTime int64) error {
	return r.dao.MarkDetailFailed(ctx, detailID, errorMsg, content, sendTime)
}

func (r *batchRepository) MarkDetailRetrying(ctx context.Context, detailID int64) error {
	return r.dao.MarkDetailRetrying(ctx, detailID)
}

func (r *batchRepository) toBatchEntity(b domain.Batch) dao.Batch {
	var params string
	if len(b.ContentParams) > 0 {
		bs, err := json.Marshal(b.ContentParams)
		if err != nil {
			r.logger.Warn("序列化批次参数失败", logger.String("batchNo", b.BatchNo), logger.Error(err))
		} else {
			params = string(bs)
		}
	}
	return dao.Batch{
		ID:            b.ID,
		BatchNo:       b.BatchNo,
		AppID:         b.AppID,
		TemplateID:    b.TemplateID,
		TemplateName:  b.TemplateName,
		ChannelID:     b.ChannelID,
		ChannelName:   b.ChannelName,
		ChannelType:   b.ChannelType.String(),
		MsgType:       int8(b.MsgType),
		Title:         b.Title,
		Content:       b.Content,
		ContentParams: params,
		TotalCount:    b.TotalCount,
		SuccessCount:  b.SuccessCount,
		FailCount:     b.FailCount,
		Status:        int8(b.Status),
		Ctime:         b.Ctime,
	}
}

func (r *batchRepository) toBatchDomain(e dao.Batch) domain.Batch {
	batch := domain.Batch{
		ID:           e.ID,
		BatchNo:      e.BatchNo,
		AppID:        e.AppID,
		TemplateID:   e.TemplateID,
		TemplateName: e.TemplateName,
		ChannelID:    e.ChannelID,
		ChannelName:  e.ChannelName,
		ChannelType:  domain.ChannelType(e.ChannelType),
		MsgType:      domain.MsgType(e.MsgType),
		Title:        e.Title,
		Content:      e.Content,
		TotalCount:   e.TotalCount,
		SuccessCount: e.SuccessCount,
		FailCount:    e.FailCount,
		Status:       domain.BatchStatus(e.Status),
		Ctime:        e.Ctime,
	}
	if e.ContentParams != "" {
		var params map[string]string
		if err := json.Unmarshal([]byte(e.ContentParams), &params); err != nil {
			r.logger.Warn("反序列化批次参数失败", logger.Int64("id", e.ID), logger.Error(err))
		} else {
			batch.ContentParams = params
		}
	}
	return batch
}

func toDetailEntity(d domain.Detail) dao.Detail {
	return dao.Detail{
		ID:              d.ID,
		BatchID:         d.BatchID,
		Recipient:       d.Recipient,
		RecipientName:   d.RecipientName,
		Content:         d.Content,
		Status:          int8(d.Status),
		ThirdPartyMsgID: d.ThirdPartyMsgID,
		ErrorMsg:        d.ErrorMsg,
		RetryCount:      d.RetryCount,
		SendTime:        d.SendTime,
		Ctime:           d.Ctime,
	}
}

func toDetailDomain(e dao.Detail) domain.Detail {
	return domain.Detail{
		ID:              e.ID,
		BatchID:         e.BatchID,
		Recipient:       e.Recipient,
		RecipientName:   e.RecipientName,
		Content:         e.Content,
		Status:          domain.DetailStatus(e.Status),
		ThirdPartyMsgID: e.ThirdPartyMsgID,
		ErrorMsg:        e.ErrorMsg,
		RetryCount:      e.RetryCount,
		SendTime:        e.SendTime,
		Ctime:           e.Ctime,
	}
}
