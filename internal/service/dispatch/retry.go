package dispatch

import (
	"context"
	"fmt"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
)

const defaultMaxRetryCount = 5

// Retry 重发单条失败的详情。
// 只有 FAILED 状态可重试；详情先回到 SENDING、批次回到处理中，
// 再走一遍和首发完全一样的投递管线，批次状态随新终态重新推导。
func (s *service) Retry(ctx context.Context, detailID int64) error {
	detail, err := s.batchRepo.GetDetailByID(ctx, detailID)
	if err != nil {
		return err
	}
	if detail.Status != domain.DetailStatusFailed {
		return fmt.Errorf("%w: 仅发送失败的详情允许重试，当前状态 %d", errs.ErrInvalidState, detail.Status)
	}
	if detail.RetryCount >= s.maxRetryCount {
		return fmt.Errorf("%w: 重试次数已达上限 %d", errs.ErrInvalidState, s.maxRetryCount)
	}

	batch, err := s.batchRepo.GetByID(ctx, detail.BatchID)
	if err != nil {
		return err
	}
	tmpl, err := s.templateRepo.GetByID(ctx, batch.TemplateID)
	if err != nil {
		return err
	}
	channel, err := s.channelRepo.GetByID(ctx, batch.ChannelID)
	if err != nil {
		return err
	}
	ad, err := s.registry.Get(channel)
	if err != nil {
		return err
	}

	// 数据库侧带 FAILED 状态 CAS，并发重试同一详情只有一个能进来
	if err := s.batchRepo.MarkDetailRetrying(ctx, detailID); err != nil {
		return err
	}
	detail.Status = domain.DetailStatusSending
	s.sendOne(ctx, tmpl, batch, ad, detail)
	return nil
}
