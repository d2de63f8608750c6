package msglog

import (
	"context"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/repository"
)

// Service 发送日志查询，控制台的批次/详情页面走这里
type Service interface {
	PageBatches(ctx context.Context, q repository.BatchQuery) ([]domain.Batch, int64, error)
	GetBatch(ctx context.Context, id int64) (domain.Batch, error)
	GetBatchByNo(ctx context.Context, batchNo string) (domain.Batch, error)
	Statistics(ctx context.Context, appID, startTime, endTime int64) (repository.Statistics, error)
	PageDetails(ctx context.Context, q repository.DetailQuery) ([]domain.Detail, int64, error)
}

type service struct {
	repo repository.BatchRepository
}

func NewService(repo repository.BatchRepository) Service {
	return &service{repo: repo}
}

func (s *service) PageBatches(ctx context.Context, q repository.BatchQuery) ([]domain.Batch, int64, error) {
	return s.repo.Find(ctx, q)
}

func (s *service) GetBatch(ctx context.Context, id int64) (domain.Batch, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetBatchByNo(ctx context.Context, batchNo string) (domain.Batch, error) {
	return s.repo.GetByBatchNo(ctx, batchNo)
}

func (s *service) Statistics(ctx context.Context, appID, startTime, endTime int64) (repository.Statistics, error) {
	return s.repo.Statistics(ctx, appID, startTime, endTime)
}

func (s *service) PageDetails(ctx context.Context, q repository.DetailQuery) ([]domain.Detail, int64, error) {
	return s.repo.FindDetails(ctx, q)
}
