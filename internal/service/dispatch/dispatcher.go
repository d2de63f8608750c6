package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ecodeclub/ekit/pool"
	"go.uber.org/multierr"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
	"go-unimessage/internal/pkg/dedup"
	"go-unimessage/internal/pkg/idempotent"
	"go-unimessage/internal/pkg/idgen"
	"go-unimessage/internal/pkg/logger"
	"go-unimessage/internal/pkg/mqx"
	"go-unimessage/internal/pkg/ratelimit"
	"go-unimessage/internal/repository"
	"go-unimessage/internal/service/adapter"
	"go-unimessage/internal/service/render"
	"go-unimessage/internal/service/resolver"
)

const (
	// BatchTopic 批次分发队列主题
	BatchTopic = "message:batch:dispatch"

	bizIDKeyPrefix   = "send:biz:"
	processKeyPrefix = "batch:process:"
)

// batchEvent 队列里流转的批次事件
type batchEvent struct {
	BatchID int64 `json:"batchId"`
}

// Service 分发协调器：受理发送请求并消费批次完成投递
type Service interface {
	// Send 受理发送请求：校验、解析接收者、去重，批次与详情原子落库后入队，
	// 立即返回批次号，实际投递异步完成
	Send(ctx context.Context, req domain.SendRequest) (domain.SendResponse, error)
	// Process 消费一个批次：对每条发送中的详情做 限流->渲染->投递->落终态
	Process(ctx context.Context, batchID int64) error
	// Retry 重发单条失败详情
	Retry(ctx context.Context, detailID int64) error
}

type service struct {
	appRepo      repository.AppRepository
	templateRepo repository.TemplateRepository
	channelRepo  repository.ChannelRepository
	batchRepo    repository.BatchRepository

	resolver resolver.Resolver
	renderer render.Renderer
	registry *adapter.Registry
	guard    *dedup.Guard
	limiter  ratelimit.Limiter
	idGen    *idgen.Generator
	idemSvc  idempotent.IdempotencyService
	producer mqx.Producer
	pools    *ChannelPools
	logger   logger.Logger

	maxRetryCount int
}

func NewService(
	appRepo repository.AppRepository,
	templateRepo repository.TemplateRepository,
	channelRepo repository.ChannelRepository,
	batchRepo repository.BatchRepository,
	rsv resolver.Resolver,
	renderer render.Renderer,
	registry *adapter.Registry,
	guard *dedup.Guard,
	limiter ratelimit.Limiter,
	idGen *idgen.Generator,
	idemSvc idempotent.IdempotencyService,
	producer mqx.Producer,
	pools *ChannelPools,
	l logger.Logger,
) Service {
	return &service{
		appRepo:       appRepo,
		templateRepo:  templateRepo,
		channelRepo:   channelRepo,
		batchRepo:     batchRepo,
		resolver:      rsv,
		renderer:      renderer,
		registry:      registry,
		guard:         guard,
		limiter:       limiter,
		idGen:         idGen,
		idemSvc:       idemSvc,
		producer:      producer,
		pools:         pools,
		logger:        l,
		maxRetryCount: defaultMaxRetryCount,
	}
}

func (s *service) Send(ctx context.Context, req domain.SendRequest) (domain.SendResponse, error) {
	if err := req.Validate(); err != nil {
		return domain.SendResponse{}, err
	}
	// bizId 幂等：同一业务ID的请求只受理一次
	if req.BizID != "" {
		exists, err := s.idemSvc.Exists(ctx, bizIDKeyPrefix+req.BizID)
		if err != nil {
			return domain.SendResponse{}, err
		}
		if exists {
			return domain.SendResponse{}, fmt.Errorf("%w: bizId=%s", errs.ErrDuplicateRequest, req.BizID)
		}
	}

	tmpl, channel, err := s.loadTemplateAndChannel(ctx, req)
	if err != nil {
		return domain.SendResponse{}, err
	}

	resolved, skipped, err := s.resolver.Resolve(ctx, tmpl, channel.Type, req.Recipients)
	if err != nil {
		return domain.SendResponse{}, err
	}

	// 去重拦截的接收者只计入跳过数，不产生详情
	now := time.Now()
	admitted := make([]domain.ResolvedRecipient, 0, len(resolved))
	for _, r := range resolved {
		if !s.guard.Admit(tmpl.ID, r.Address, tmpl.Dedup, now) {
			skipped++
			continue
		}
		admitted = append(admitted, r)
	}
	if len(admitted) == 0 {
		return domain.SendResponse{}, fmt.Errorf("%w: 接收者均被去重拦截", errs.ErrNoValidRecipient)
	}

	batch, err := s.createBatch(ctx, req, tmpl, channel, admitted)
	if err != nil {
		return domain.SendResponse{}, err
	}

	event, _ := json.Marshal(batchEvent{BatchID: batch.ID})
	if err := s.producer.Produce(ctx, mqx.Message{Topic: BatchTopic, Value: event}); err != nil {
		// 批次已落库，入队失败只告警，消费侧扫不到就由运维手工补投
		s.logger.Error("批次入队失败",
			logger.Int64("batchId", batch.ID),
			logger.String("batchNo", batch.BatchNo),
			logger.Error(err))
	}
	return domain.SendResponse{
		BatchNo:      batch.BatchNo,
		TotalCount:   len(admitted),
		SkippedCount: skipped,
	}, nil
}

func (s *service) loadTemplateAndChannel(ctx context.Context, req domain.SendRequest) (domain.Template, domain.Channel, error) {
	tmpl, err := s.templateRepo.GetByCode(ctx, req.TemplateCode)
	if err != nil {
		return domain.Template{}, domain.Channel{}, err
	}
	if !tmpl.Enabled() {
		return domain.Template{}, domain.Channel{}, fmt.Errorf("%w: %s", errs.ErrTemplateDisabled, tmpl.Code)
	}
	if req.AppID > 0 {
		app, err := s.appRepo.GetByID(ctx, req.AppID)
		if err != nil {
			return domain.Template{}, domain.Channel{}, err
		}
		if !app.Enabled() {
			return domain.Template{}, domain.Channel{}, fmt.Errorf("%w: %s", errs.ErrAppDisabled, app.Name)
		}
		// AppID 为 0 的模板是公共模板，任何应用可用
		if tmpl.AppID != 0 && tmpl.AppID != req.AppID {
			return domain.Template{}, domain.Channel{}, fmt.Errorf("%w: 模板 %s 不属于该应用", errs.ErrInvalidParameter, tmpl.Code)
		}
	}
	channel, err := s.channelRepo.GetByID(ctx, tmpl.ChannelID)
	if err != nil {
		return domain.Template{}, domain.Channel{}, err
	}
	if !channel.Enabled() {
		return domain.Template{}, domain.Channel{}, fmt.Errorf("%w: %s", errs.ErrChannelDisabled, channel.Name)
	}
	return tmpl, channel, nil
}

func (s *service) createBatch(ctx context.Context, req domain.SendRequest,
	tmpl domain.Template, channel domain.Channel, admitted []domain.ResolvedRecipient) (domain.Batch, error) {
	batchID, err := s.idGen.NextID()
	if err != nil {
		return domain.Batch{}, err
	}
	batch := domain.Batch{
		ID:            batchID,
		BatchNo:       s.idGen.BatchNo(),
		AppID:         req.AppID,
		TemplateID:    tmpl.ID,
		TemplateName:  tmpl.Name,
		ChannelID:     channel.ID,
		ChannelName:   channel.Name,
		ChannelType:   channel.Type,
		MsgType:       tmpl.MsgType,
		Title:         tmpl.Title,
		Content:       tmpl.Content,
		ContentParams: req.Params,
		TotalCount:    len(admitted),
		Status:        domain.BatchStatusPending,
	}
	details := make([]domain.Detail, 0, len(admitted))
	for _, r := range admitted {
		details = append(details, domain.Detail{
			BatchID:       batchID,
			Recipient:     r.Address,
			RecipientName: r.Name,
			Status:        domain.DetailStatusSending,
		})
	}
	batch, _, err = s.batchRepo.Create(ctx, batch, details)
	if err != nil {
		return domain.Batch{}, err
	}
	return batch, nil
}

func (s *service) Process(ctx context.Context, batchID int64) error {
	// 队列可能重复投递，同一批次只处理一次
	processed, err := s.idemSvc.Exists(ctx, fmt.Sprintf("%s%d", processKeyPrefix, batchID))
	if err != nil {
		return err
	}
	if processed {
		s.logger.Info("批次已处理过，跳过", logger.Int64("batchId", batchID))
		return nil
	}

	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return err
	}
	if batch.Status.Terminal() {
		return nil
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
	details, err := s.batchRepo.FindDetailsByBatchID(ctx, batchID)
	if err != nil {
		return err
	}

	taskPool := s.pools.Get(channel.Type)
	var wg sync.WaitGroup
	var submitErr error
	for i := range details {
		d := details[i]
		if d.Status != domain.DetailStatusSending {
			continue
		}
		wg.Add(1)
		err := taskPool.Submit(ctx, pool.TaskFunc(func(ctx context.Context) error {
			defer wg.Done()
			s.sendOne(ctx, tmpl, batch, ad, d)
			return nil
		}))
		if err != nil {
			wg.Done()
			submitErr = multierr.Append(submitErr, fmt.Errorf("提交详情 %d 到任务池失败: %w", d.ID, err))
		}
	}
	wg.Wait()
	return submitErr
}

// sendOne 单条详情的完整投递：限流 -> 渲染 -> 适配器 -> 落终态。
// 任何失败都止步于这条详情，不影响同批次其他接收者。
func (s *service) sendOne(ctx context.Context, tmpl domain.Template, batch domain.Batch, ad adapter.Adapter, d domain.Detail) {
	content := s.renderer.Render(batch.Content, batch.ContentParams)
	if missing := s.renderer.MissingVars(tmpl.Variables, batch.ContentParams); len(missing) > 0 {
		s.logger.Warn("模板声明的变量未全部传入",
			logger.String("templateCode", tmpl.Code),
			logger.Any("missing", missing))
	}

	if err := s.limiter.Acquire(ctx, tmpl.ID, tmpl.RateLimit); err != nil {
		s.markFailed(ctx, d.ID, fmt.Errorf("%w: %w", errs.ErrRateLimited, err), content)
		return
	}

	msg := domain.ChannelMessage{
		Target:       d.Recipient,
		Title:        s.renderer.Render(batch.Title, batch.ContentParams),
		Content:      content,
		TemplateID:   tmpl.ThirdPartyID,
		Params:       batch.ContentParams,
		TemplateVars: tmpl.Variables,
		TemplateCode: tmpl.Code,
	}
	res, err := ad.Send(ctx, msg)
	now := time.Now().UnixMilli()
	if err != nil {
		s.logger.Warn("渠道投递失败",
			logger.Int64("detailId", d.ID),
			logger.String("channelType", batch.ChannelType.String()),
			logger.Error(err))
		s.markFailed(ctx, d.ID, err, content)
		return
	}
	if err := s.batchRepo.MarkDetailSuccess(ctx, d.ID, res.MsgID, content, now); err != nil {
		s.logger.Error("标记详情成功失败", logger.Int64("detailId", d.ID), logger.Error(err))
	}
}

func (s *service) markFailed(ctx context.Context, detailID int64, cause error, content string) {
	if err := s.batchRepo.MarkDetailFailed(ctx, detailID, cause.Error(), content, time.Now().UnixMilli()); err != nil {
		s.logger.Error("标记详情失败失败", logger.Int64("detailId", detailID), logger.Error(err))
	}
}
