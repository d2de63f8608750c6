package adapter

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"go-unimessage/internal/domain"
)

const (
	metricsMaxAge        = 5 * time.Minute
	metricsP50Percentile = 0.5
	metricsP50Error      = 0.05
	metricsP90Percentile = 0.9
	metricsP90Error      = 0.01
	metricsP95Percentile = 0.95
	metricsP95Error      = 0.005
	metricsP99Percentile = 0.99
	metricsP99Error      = 0.001

	statusSuccess = "success"
	statusFailed  = "failed"
)

type metricsAdapter struct {
	next            Adapter
	channelType     string
	sendCounter     *prometheus.CounterVec
	sendStatus      *prometheus.CounterVec
	durationSummary *prometheus.SummaryVec
}

var (
	adapterSendCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "message_channel_send_total",
			Help: "渠道投递总数",
		}, []string{"channel"},
	)
	adapterSendStatus = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "message_channel_send_status_total",
			Help: "渠道投递状态统计",
		}, []string{"channel", "status"},
	)
	adapterDurationSummary = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "message_channel_send_duration_seconds",
			Help: "渠道投递耗时统计（秒）",
			Objectives: map[float64]float64{
				metricsP50Percentile: metricsP50Error,
				metricsP90Percentile: metricsP90Error,
				metricsP95Percentile: metricsP95Error,
				metricsP99Percentile: metricsP99Error,
			},
			MaxAge: metricsMaxAge,
		}, []string{"channel", "status"},
	)
)

func init() {
	prometheus.MustRegister(adapterSendCounter, adapterSendStatus, adapterDurationSummary)
}

// MetricsDecorator 给适配器挂 Prometheus 指标
func MetricsDecorator(typ domain.ChannelType, next Adapter) Adapter {
	return &metricsAdapter{
		next:            next,
		channelType:     typ.String(),
		sendCounter:     adapterSendCounter,
		sendStatus:      adapterSendStatus,
		durationSummary: adapterDurationSummary,
	}
}

func (m *metricsAdapter) Send(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	startTime := time.Now()
	m.sendCounter.WithLabelValues(m.channelType).Inc()

	res, err := m.next.Send(ctx, msg)

	status := statusSuccess
	if err != nil {
		status = statusFailed
	}
	m.sendStatus.WithLabelValues(m.channelType, status).Inc()
	m.durationSummary.WithLabelValues(m.channelType, status).Observe(time.Since(startTime).Seconds())
	return res, err
}
