package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	summaryMaxAge         = 5 * time.Minute
	summaryP50ErrorMargin = 0.05
	summaryP90ErrorMargin = 0.01
	summaryP99ErrorMargin = 0.001

	startTimeKey = "metrics:startTime"
)

// GormMetricsPlugin 上报 GORM 操作次数、耗时与错误数
type GormMetricsPlugin struct {
	requestCount *prometheus.CounterVec
	responseTime *prometheus.SummaryVec
	errorCount   *prometheus.CounterVec
}

func NewGormMetricsPlugin() *GormMetricsPlugin {
	requestCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gorm",
			Name:      "requests_total",
			Help:      "Total number of GORM database operations.",
		},
		[]string{"operation", "table"},
	)
	responseTime := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: "gorm",
			Name:      "response_time_seconds",
			Help:      "Response time of GORM database operations in seconds.",
			Objectives: map[float64]float64{
				0.5:  summaryP50ErrorMargin,
				0.9:  summaryP90ErrorMargin,
				0.99: summaryP99ErrorMargin,
			},
			MaxAge: summaryMaxAge,
		},
		[]string{"operation", "table"},
	)
	errorCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gorm",
			Name:      "errors_total",
			Help:      "Total number of GORM errors.",
		},
		[]string{"operation", "table"},
	)
	prometheus.MustRegister(requestCount, responseTime, errorCount)
	return &GormMetricsPlugin{
		requestCount: requestCount,
		responseTime: responseTime,
		errorCount:   errorCount,
	}
}

func (p *GormMetricsPlugin) Name() string {
	return "metrics"
}

func (p *GormMetricsPlugin) Initialize(db *gorm.DB) error {
	ops := []struct {
		name     string
		register func(name string, fn func(*gorm.DB)) error
		after    func(name string, fn func(*gorm.DB)) error
	}{
		{"create", db.Callback().Create().Before("gorm:create").Register, db.Callback().Create().After("gorm:create").Register},
		{"query", db.Callback().Query().Before("gorm:query").Register, db.Callback().Query().After("gorm:query").Register},
		{"update", db.Callback().Update().Before("gorm:update").Register, db.Callback().Update().After("gorm:update").Register},
		{"delete", db.Callback().Delete().Before("gorm:delete").Register, db.Callback().Delete().After("gorm:delete").Register},
		{"raw", db.Callback().Raw().Before("gorm:raw").Register, db.Callback().Raw().After("gorm:raw").Register},
		{"row", db.Callback().Row().Before("gorm:row").Register, db.Callback().Row().After("gorm:row").Register},
	}
	for _, op := range ops {
		operation := op.name
		if err := op.register("metrics:before_"+operation, p.before); err != nil {
			return err
		}
		if err := op.after("metrics:after_"+operation, p.after(operation)); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormMetricsPlugin) before(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func (p *GormMetricsPlugin) after(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		table := db.Statement.Table
		p.requestCount.WithLabelValues(operation, table).Inc()
		if val, ok := db.InstanceGet(startTimeKey); ok {
			if start, ok2 := val.(time.Time); ok2 {
				p.responseTime.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
			}
		}
		if db.Error != nil {
			p.errorCount.WithLabelValues(operation, table).Inc()
		}
	}
}
