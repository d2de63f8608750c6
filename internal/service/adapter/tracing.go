package adapter

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"go-unimessage/internal/domain"
)

// tracingAdapter 为渠道投递添加链路追踪的装饰器
type tracingAdapter struct {
	next        Adapter
	channelType string
	tracer      trace.Tracer
}

func TracingDecorator(typ domain.ChannelType, next Adapter) Adapter {
	return &tracingAdapter{
		next:        next,
		channelType: typ.String(),
		tracer:      otel.Tracer("adapter"),
	}
}

func (t *tracingAdapter) Send(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	ctx, span := t.tracer.Start(ctx, "Adapter.Send",
		trace.WithAttributes(
			attribute.String("channel.type", t.channelType),
			attribute.String("template.code", msg.TemplateCode),
		))
	defer span.End()

	res, err := t.next.Send(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if res.MsgID != "" {
		span.SetAttributes(attribute.String("provider.msgId", res.MsgID))
	}
	return res, err
}
