// Package metrics 提供 Prometheus helper，包含事件管道、承保方调用与业务指标模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/policyadmin/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// 事件生产计数（按 topic）
	EventsProduced *prometheus.CounterVec
	// 事件消费计数（按 topic 和结果）
	EventsConsumed *prometheus.CounterVec
	// 去重命中计数
	EventsDeduplicated *prometheus.CounterVec
	// 死信计数（按原 topic）
	EventsDeadLettered *prometheus.CounterVec
	// 消息处理耗时
	EventHandleDuration *prometheus.HistogramVec

	// 承保方调用计数（按操作和结果）
	CarrierRequestsTotal *prometheus.CounterVec
	// 承保方调用耗时
	CarrierRequestDuration *prometheus.HistogramVec
	// 熔断器状态（0=closed, 1=half_open, 2=open）
	BreakerState *prometheus.GaugeVec

	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 业务指标
	PoliciesTotal  prometheus.Counter
	ClaimsTotal    prometheus.Counter
	DecisionsTotal *prometheus.CounterVec
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		EventsProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insurance",
			Subsystem: serviceName,
			Name:      "events_produced_total",
			Help:      "Total domain events produced",
		}, []string{"topic"}),
		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insurance",
			Subsystem: serviceName,
			Name:      "events_consumed_total",
			Help:      "Total domain events consumed",
		}, []string{"topic", "result"}),
		EventsDeduplicated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insurance",
			Subsystem: serviceName,
			Name:      "events_deduplicated_total",
			Help:      "Total redelivered events skipped by deduplication",
		}, []string{"topic"}),
		EventsDeadLettered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insurance",
			Subsystem: serviceName,
			Name:      "events_dead_lettered_total",
			Help:      "Total events routed to a dead letter topic",
		}, []string{"topic"}),
		EventHandleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "insurance",
			Subsystem: serviceName,
			Name:      "event_handle_duration_seconds",
			Help:      "Event effect duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"}),

		CarrierRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insurance",
			Subsystem: serviceName,
			Name:      "carrier_requests_total",
			Help:      "Total carrier REST calls",
		}, []string{"operation", "result"}),
		CarrierRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "insurance",
			Subsystem: serviceName,
			Name:      "carrier_request_duration_seconds",
			Help:      "Carrier REST call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "insurance",
			Subsystem: serviceName,
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half_open, 2=open)",
		}, []string{"operation"}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insurance",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "insurance",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		PoliciesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "insurance",
			Subsystem: serviceName,
			Name:      "policies_total",
			Help:      "Total policies created",
		}),
		ClaimsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "insurance",
			Subsystem: serviceName,
			Name:      "claims_total",
			Help:      "Total claims created",
		}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insurance",
			Subsystem: serviceName,
			Name:      "underwriting_decisions_total",
			Help:      "Total underwriting decisions made",
		}, []string{"status"}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.EventsProduced,
		m.EventsConsumed,
		m.EventsDeduplicated,
		m.EventsDeadLettered,
		m.EventHandleDuration,
		m.CarrierRequestsTotal,
		m.CarrierRequestDuration,
		m.BreakerState,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PoliciesTotal,
		m.ClaimsTotal,
		m.DecisionsTotal,
	}

	for _, collector := range collectors {
		if err := prometheus.DefaultRegisterer.Register(collector); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()

	return nil
}
