package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"github.com/wyfcoding/policyadmin/pkg/logger"
)

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	// 逻辑操作名（例如 carrier-sync），同一操作的所有并发调用共享一个熔断器
	Name string
	// 失败率统计的滚动窗口
	Window time.Duration
	// 触发熔断的失败率阈值（0~1）
	FailureRateThreshold float64
	// 窗口内最小请求数，低于该值不触发熔断
	MinRequests int
	// OPEN -> HALF_OPEN 的等待时间
	ResetTimeout time.Duration
}

// StateChangeFunc 状态变更回调，用于上报指标与日志
type StateChangeFunc func(name string, from, to gobreaker.State)

// Breaker 包装 gobreaker，约束错误语义：
// OPEN 期间不调用底层操作，统一返回 ErrServiceUnavailable；
// 只有瞬时错误计入失败率，业务校验失败不触发熔断。
// 熔断器状态是唯一的共享可变状态，读改写由 gobreaker 内部互斥保证原子。
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker 创建熔断器
func NewBreaker(cfg BreakerConfig, onStateChange StateChangeFunc) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1, // HALF_OPEN 只放行一次试探调用
		Interval:    cfg.Window,
		Timeout:     cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.MinRequests) {
				return false
			}
			failureRate := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRate >= cfg.FailureRateThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed",
				"operation", name,
				"from", from.String(),
				"to", to.String(),
			)
			if onStateChange != nil {
				onStateChange(name, from, to)
			}
		},
		IsSuccessful: func(err error) bool {
			// 业务侧拒绝说明下游健康，不计入失败率
			return err == nil || !IsTransient(err)
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute 通过熔断器执行操作。OPEN 状态下直接返回 ErrServiceUnavailable，
// 不发起底层调用。
func (b *Breaker) Execute(op func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, op()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrServiceUnavailable
	}
	return err
}

// State 返回当前熔断器状态
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Name 返回熔断器的逻辑操作名
func (b *Breaker) Name() string {
	return b.cb.Name()
}

// StateGaugeValue 将状态映射为指标值（0=closed, 1=half_open, 2=open）
func StateGaugeValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
