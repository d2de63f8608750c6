package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ecodeclub/ekit/pool"
	"github.com/sony/sonyflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
	"go-unimessage/internal/pkg/dedup"
	"go-unimessage/internal/pkg/idgen"
	"go-unimessage/internal/pkg/logger"
	"go-unimessage/internal/pkg/mqx"
	"go-unimessage/internal/pkg/ratelimit"
	"go-unimessage/internal/repository"
	"go-unimessage/internal/service/adapter"
	"go-unimessage/internal/service/render"
	"go-unimessage/internal/service/resolver"
)

// ---- 内存实现，行为与 DAO 层事务语义一致 ----

type fakeBatchRepo struct {
	mu      sync.Mutex
	nextID  int64
	batches map[int64]*domain.Batch
	details map[int64]*domain.Detail
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{
		nextID:  1,
		batches: make(map[int64]*domain.Batch),
		details: make(map[int64]*domain.Detail),
	}
}

func (f *fakeBatchRepo) Create(_ context.Context, batch domain.Batch, details []domain.Detail) (domain.Batch, []domain.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := batch
	f.batches[b.ID] = &b
	out := make([]domain.Detail, 0, len(details))
	for _, d := range details {
		d.ID = f.nextID
		f.nextID++
		d.BatchID = b.ID
		stored := d
		f.details[d.ID] = &stored
		out = append(out, d)
	}
	return b, out, nil
}

func (f *fakeBatchRepo) GetByID(_ context.Context, id int64) (domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return domain.Batch{}, errs.ErrBatchNotFound
	}
	return *b, nil
}

func (f *fakeBatchRepo) GetByBatchNo(_ context.Context, batchNo string) (domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.batches {
		if b.BatchNo == batchNo {
			return *b, nil
		}
	}
	return domain.Batch{}, errs.ErrBatchNotFound
}

func (f *fakeBatchRepo) Find(_ context.Context, _ repository.BatchQuery) ([]domain.Batch, int64, error) {
	return nil, 0, nil
}

func (f *fakeBatchRepo) Statistics(_ context.Context, _, _, _ int64) (repository.Statistics, error) {
	return repository.Statistics{}, nil
}

func (f *fakeBatchRepo) GetDetailByID(_ context.Context, id int64) (domain.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[id]
	if !ok {
		return domain.Detail{}, errs.ErrDetailNotFound
	}
	return *d, nil
}

func (f *fakeBatchRepo) FindDetails(_ context.Context, _ repository.DetailQuery) ([]domain.Detail, int64, error) {
	return nil, 0, nil
}

func (f *fakeBatchRepo) FindDetailsByBatchID(_ context.Context, batchID int64) ([]domain.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []domain.Detail
	for id := int64(1); id < f.nextID; id++ {
		if d, ok := f.details[id]; ok && d.BatchID == batchID {
			res = append(res, *d)
		}
	}
	return res, nil
}

func (f *fakeBatchRepo) MarkDetailSuccess(_ context.Context, detailID int64, msgID, content string, sendTime int64) error {
	return f.markTerminal(detailID, domain.DetailStatusSuccess, msgID, "", content, sendTime)
}

func (f *fakeBatchRepo) MarkDetailFailed(_ context.Context, detailID int64, errorMsg, content string, sendTime int64) error {
	return f.markTerminal(detailID, domain.DetailStatusFailed, "", errorMsg, content, sendTime)
}

func (f *fakeBatchRepo) markTerminal(detailID int64, status domain.DetailStatus, msgID, errorMsg, content string, sendTime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[detailID]
	if !ok {
		return errs.ErrDetailNotFound
	}
	if d.Status != domain.DetailStatusSending {
		return errs.ErrInvalidState
	}
	d.Status = status
	d.ThirdPartyMsgID = msgID
	d.ErrorMsg = errorMsg
	d.Content = content
	d.SendTime = sendTime

	b := f.batches[d.BatchID]
	if status == domain.DetailStatusSuccess {
		b.SuccessCount++
	} else {
		b.FailCount++
	}
	if b.SuccessCount+b.FailCount >= b.TotalCount {
		b.Status = domain.DeriveBatchStatus(b.TotalCount, b.SuccessCount, b.FailCount)
	}
	return nil
}

func (f *fakeBatchRepo) MarkDetailRetrying(_ context.Context, detailID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[detailID]
	if !ok {
		return errs.ErrDetailNotFound
	}
	if d.Status != domain.DetailStatusFailed {
		return errs.ErrInvalidState
	}
	d.Status = domain.DetailStatusSending
	d.ErrorMsg = ""
	d.RetryCount++
	b := f.batches[d.BatchID]
	b.FailCount--
	b.Status = domain.BatchStatusPending
	return nil
}

type fakeTemplateRepo struct {
	templates map[string]domain.Template
}

func (f *fakeTemplateRepo) GetByID(_ context.Context, id int64) (domain.Template, error) {
	for _, t := range f.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Template{}, errs.ErrTemplateNotFound
}

func (f *fakeTemplateRepo) GetByCode(_ context.Context, code string) (domain.Template, error) {
	t, ok := f.templates[code]
	if !ok {
		return domain.Template{}, errs.ErrTemplateNotFound
	}
	return t, nil
}

type fakeChannelRepo struct {
	channels map[int64]domain.Channel
}

func (f *fakeChannelRepo) GetByID(_ context.Context, id int64) (domain.Channel, error) {
	c, ok := f.channels[id]
	if !ok {
		return domain.Channel{}, errs.ErrChannelNotFound
	}
	return c, nil
}

type fakeAppRepo struct {
	apps map[int64]domain.App
}

func (f *fakeAppRepo) GetByID(_ context.Context, id int64) (domain.App, error) {
	a, ok := f.apps[id]
	if !ok {
		return domain.App{}, errs.ErrAppNotFound
	}
	return a, nil
}

func (f *fakeAppRepo) GetByKey(_ context.Context, _ string) (domain.App, error) {
	return domain.App{}, errs.ErrAppNotFound
}

type fakeRecipientRepo struct{}

func (f *fakeRecipientRepo) GetByIDs(_ context.Context, _ []int64) ([]domain.Recipient, error) {
	return nil, nil
}

func (f *fakeRecipientRepo) GetByGroupID(_ context.Context, _ int64) ([]domain.Recipient, error) {
	return nil, nil
}

type fakeIdem struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (f *fakeIdem) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys == nil {
		f.keys = make(map[string]struct{})
	}
	if _, ok := f.keys[key]; ok {
		return true, nil
	}
	f.keys[key] = struct{}{}
	return false, nil
}

func (f *fakeIdem) MExists(ctx context.Context, keys ...string) ([]bool, error) {
	res := make([]bool, 0, len(keys))
	for _, k := range keys {
		ok, _ := f.Exists(ctx, k)
		res = append(res, ok)
	}
	return res, nil
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []mqx.Message
}

func (f *fakeProducer) Produce(_ context.Context, msg mqx.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

// scriptedAdapter 按接收地址决定成败，可运行中改写
type scriptedAdapter struct {
	mu      sync.Mutex
	failFor map[string]bool
	calls   int
}

func (a *scriptedAdapter) Send(_ context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.failFor[msg.Target] {
		return domain.ProviderResult{}, fmt.Errorf("%w: 模拟拒绝", errs.ErrProviderRejected)
	}
	return domain.ProviderResult{MsgID: "msg-" + msg.Target}, nil
}

func (a *scriptedAdapter) setFail(target string, fail bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failFor[target] = fail
}

// ---- 测试装配 ----

type fixture struct {
	svc       Service
	batchRepo *fakeBatchRepo
	producer  *fakeProducer
	adapter   *scriptedAdapter
}

func newFixture(t *testing.T, tmpl domain.Template) *fixture {
	t.Helper()
	nop := logger.NewNopLogger()

	ad := &scriptedAdapter{failFor: make(map[string]bool)}
	registry := adapter.NewRegistry(nop)
	registry.Register(domain.ChannelWebhook, func(_ domain.Channel) (adapter.Adapter, error) {
		return ad, nil
	})

	taskPool, err := pool.NewOnDemandBlockTaskPool(4, 64)
	require.NoError(t, err)
	require.NoError(t, taskPool.Start())

	batchRepo := newFakeBatchRepo()
	producer := &fakeProducer{}
	svc := NewService(
		&fakeAppRepo{apps: map[int64]domain.App{1: {ID: 1, Name: "控制台", Status: domain.StatusEnabled}}},
		&fakeTemplateRepo{templates: map[string]domain.Template{tmpl.Code: tmpl}},
		&fakeChannelRepo{channels: map[int64]domain.Channel{
			10: {ID: 10, Name: "回调通道", Type: domain.ChannelWebhook, Status: domain.StatusEnabled,
				Config: domain.ChannelConfig{"url": "http://example.com/hook"}},
		}},
		batchRepo,
		resolver.NewResolver(&fakeRecipientRepo{}, nop),
		render.NewRenderer(nop),
		registry,
		dedup.NewGuard(),
		ratelimit.NewTokenBucketLimiter(),
		idgen.NewGenerator(sonyflake.NewSonyflake(sonyflake.Settings{
			MachineID: func() (uint16, error) { return 1, nil },
		})),
		&fakeIdem{},
		producer,
		NewChannelPools(nil, taskPool),
		nop,
	)
	return &fixture{
		svc:       svc.(*service),
		batchRepo: batchRepo,
		producer:  producer,
		adapter:   ad,
	}
}

func baseTemplate() domain.Template {
	return domain.Template{
		ID:        100,
		Name:      "发货通知",
		Code:      "ORDER_SHIPPED",
		ChannelID: 10,
		Content:   "订单 ${orderNo} 已发货",
		Variables: []string{"orderNo"},
		Status:    domain.StatusEnabled,
	}
}

func TestDispatch_EndToEnd_PartialThenRetryToAllSuccess(t *testing.T) {
	f := newFixture(t, baseTemplate())
	ctx := context.Background()
	f.adapter.setFail("u3", true)

	resp, err := f.svc.Send(ctx, domain.SendRequest{
		TemplateCode: "ORDER_SHIPPED",
		Recipients:   []string{"u1", "u2", "u3"},
		Params:       map[string]string{"orderNo": "A001"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.TotalCount)
	assert.Equal(t, 0, resp.SkippedCount)
	require.Len(t, f.producer.messages, 1)

	batch, err := f.batchRepo.GetByBatchNo(ctx, resp.BatchNo)
	require.NoError(t, err)
	require.NoError(t, f.svc.Process(ctx, batch.ID))

	batch, err = f.batchRepo.GetByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchStatusPartial, batch.Status)
	assert.Equal(t, 2, batch.SuccessCount)
	assert.Equal(t, 1, batch.FailCount)
	assert.Equal(t, batch.TotalCount, batch.SuccessCount+batch.FailCount)

	details, err := f.batchRepo.FindDetailsByBatchID(ctx, batch.ID)
	require.NoError(t, err)
	var failedID, successID int64
	for _, d := range details {
		switch d.Status {
		case domain.DetailStatusFailed:
			failedID = d.ID
			assert.Contains(t, d.ErrorMsg, "供应商拒绝发送")
			assert.Equal(t, "订单 A001 已发货", d.Content)
		case domain.DetailStatusSuccess:
			successID = d.ID
			assert.NotEmpty(t, d.ThirdPartyMsgID)
		}
	}
	require.NotZero(t, failedID)

	// 重试成功详情被拒绝，计数不变
	err = f.svc.Retry(ctx, successID)
	assert.ErrorIs(t, err, errs.ErrInvalidState)
	batch, _ = f.batchRepo.GetByID(ctx, batch.ID)
	assert.Equal(t, 2, batch.SuccessCount)

	// 供应商恢复后重试失败详情，批次走出终态
	f.adapter.setFail("u3", false)
	require.NoError(t, f.svc.Retry(ctx, failedID))

	batch, err = f.batchRepo.GetByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchStatusAllSuccess, batch.Status)
	assert.Equal(t, 3, batch.SuccessCount)
	assert.Equal(t, 0, batch.FailCount)

	retried, err := f.batchRepo.GetDetailByID(ctx, failedID)
	require.NoError(t, err)
	assert.Equal(t, domain.DetailStatusSuccess, retried.Status)
	assert.Equal(t, 1, retried.RetryCount)
}

func TestDispatch_AllFailed(t *testing.T) {
	f := newFixture(t, baseTemplate())
	ctx := context.Background()
	f.adapter.setFail("u1", true)
	f.adapter.setFail("u2", true)

	resp, err := f.svc.Send(ctx, domain.SendRequest{
		TemplateCode: "ORDER_SHIPPED",
		Recipients:   []string{"u1", "u2"},
		Params:       map[string]string{"orderNo": "B001"},
	})
	require.NoError(t, err)
	batch, _ := f.batchRepo.GetByBatchNo(ctx, resp.BatchNo)
	require.NoError(t, f.svc.Process(ctx, batch.ID))

	batch, _ = f.batchRepo.GetByID(ctx, batch.ID)
	assert.Equal(t, domain.BatchStatusAllFailed, batch.Status)
	assert.Equal(t, 0, batch.SuccessCount)
	assert.Equal(t, 2, batch.FailCount)
}

func TestDispatch_Send_Dedup(t *testing.T) {
	tmpl := baseTemplate()
	tmpl.Dedup = &domain.DedupConfig{IntervalSeconds: 60, Count: 1}
	f := newFixture(t, tmpl)
	ctx := context.Background()

	first, err := f.svc.Send(ctx, domain.SendRequest{
		TemplateCode: "ORDER_SHIPPED",
		Recipients:   []string{"u1"},
		Params:       map[string]string{"orderNo": "C001"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalCount)

	// 窗口内第二次发送被去重拦截，不产生任何详情
	_, err = f.svc.Send(ctx, domain.SendRequest{
		TemplateCode: "ORDER_SHIPPED",
		Recipients:   []string{"u1"},
		Params:       map[string]string{"orderNo": "C002"},
	})
	assert.ErrorIs(t, err, errs.ErrNoValidRecipient)
	assert.Len(t, f.batchRepo.details, 1)
}

func TestDispatch_Send_DedupPartial(t *testing.T) {
	tmpl := baseTemplate()
	tmpl.Dedup = &domain.DedupConfig{IntervalSeconds: 60, Count: 1}
	f := newFixture(t, tmpl)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, domain.SendRequest{
		TemplateCode: "ORDER_SHIPPED",
		Recipients:   []string{"u1"},
		Params:       map[string]string{"orderNo": "D001"},
	})
	require.NoError(t, err)

	// u1 被拦截计入跳过，u2 正常受理
	resp, err := f.svc.Send(ctx, domain.SendRequest{
		TemplateCode: "ORDER_SHIPPED",
		Recipients:   []string{"u1", "u2"},
		Params:       map[string]string{"orderNo": "D002"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalCount)
	assert.Equal(t, 1, resp.SkippedCount)
}

func TestDispatch_Send_BizIDIdempotent(t *testing.T) {
	f := newFixture(t, baseTemplate())
	ctx := context.Background()

	req := domain.SendRequest{
		TemplateCode: "ORDER_SHIPPED",
		Recipients:   []string{"u1"},
		Params:       map[string]string{"orderNo": "E001"},
		BizID:        "order-E001",
	}
	_, err := f.svc.Send(ctx, req)
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, req)
	assert.ErrorIs(t, err, errs.ErrDuplicateRequest)
	assert.Len(t, f.batchRepo.batches, 1)
}

func TestDispatch_Send_Validation(t *testing.T) {
	tmpl := baseTemplate()
	tmpl.Status = domain.StatusDisabled
	f := newFixture(t, tmpl)

	_, err := f.svc.Send(context.Background(), domain.SendRequest{
		TemplateCode: "ORDER_SHIPPED",
		Recipients:   []string{"u1"},
	})
	assert.ErrorIs(t, err, errs.ErrTemplateDisabled)
	// 校验失败不留任何落库痕迹
	assert.Empty(t, f.batchRepo.batches)

	_, err = f.svc.Send(context.Background(), domain.SendRequest{})
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func TestDispatch_Process_Once(t *testing.T) {
	f := newFixture(t, baseTemplate())
	ctx := context.Background()

	resp, err := f.svc.Send(ctx, domain.SendRequest{
		TemplateCode: "ORDER_SHIPPED",
		Recipients:   []string{"u1"},
		Params:       map[string]string{"orderNo": "F001"},
	})
	require.NoError(t, err)
	batch, _ := f.batchRepo.GetByBatchNo(ctx, resp.BatchNo)

	require.NoError(t, f.svc.Process(ctx, batch.ID))
	calls := f.adapter.calls
	// 队列重复投递同一批次，处理过的直接跳过
	require.NoError(t, f.svc.Process(ctx, batch.ID))
	assert.Equal(t, calls, f.adapter.calls)
}
