package ioc

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"

	"go-unimessage/internal/event"
	"go-unimessage/internal/pkg/dedup"
	"go-unimessage/internal/pkg/ginx"
	"go-unimessage/internal/pkg/idempotent"
	"go-unimessage/internal/pkg/mqx"
	"go-unimessage/internal/pkg/ratelimit"
	"go-unimessage/internal/repository"
	"go-unimessage/internal/repository/cache/local"
	"go-unimessage/internal/repository/dao"
	"go-unimessage/internal/service/adapter"
	"go-unimessage/internal/service/dispatch"
	"go-unimessage/internal/service/msglog"
	"go-unimessage/internal/service/render"
	"go-unimessage/internal/service/resolver"
	"go-unimessage/internal/web/message"
)

type App struct {
	WebServer *gin.Engine
	Consumer  *event.BatchConsumer
	Cron      *cron.Cron
}

func (a *App) Start(ctx context.Context) {
	a.Consumer.Start(ctx)
	a.Cron.Start()
}

// InitApp 手工装配全部组件
func InitApp() *App {
	l := InitLogger()
	tp := InitZipkinTracer()
	otel.SetTracerProvider(tp)

	db := InitDB()
	rdb := InitRedisClient()
	localCache := local.NewLocalCache(InitGoCache())

	appRepo := repository.NewAppRepository(dao.NewAppDAO(db))
	channelRepo := repository.NewChannelRepository(dao.NewChannelDAO(db), localCache, l)
	templateRepo := repository.NewTemplateRepository(dao.NewTemplateDAO(db), localCache, l)
	recipientRepo := repository.NewRecipientRepository(dao.NewRecipientDAO(db))
	batchRepo := repository.NewBatchRepository(dao.NewBatchDAO(db), l)

	guard := dedup.NewGuard()
	registry := adapter.NewRegistry(l, adapter.MetricsDecorator, adapter.TracingDecorator)

	dispatchSvc := dispatch.NewService(
		appRepo,
		templateRepo,
		channelRepo,
		batchRepo,
		resolver.NewResolver(recipientRepo, l),
		render.NewRenderer(l),
		registry,
		guard,
		ratelimit.NewTokenBucketLimiter(),
		InitIDGenerator(),
		idempotent.NewRedisIdempotencyService(rdb),
		mqx.NewRedisListProducer(rdb),
		InitChannelPools(),
		l,
	)
	logSvc := msglog.NewService(batchRepo)

	consumer := event.NewBatchConsumer(
		InitDistributedLock(rdb),
		mqx.NewRedisListConsumer(rdb, dispatch.BatchTopic),
		dispatchSvc,
		l,
	)

	server := InitWebServer([]ginx.Handler{
		message.NewHandler(dispatchSvc, logSvc),
	})

	return &App{
		WebServer: server,
		Consumer:  consumer,
		Cron:      InitCron(guard),
	}
}
