package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/wyfcoding/policyadmin/pkg/logger"
)

// RetryPolicy 指数退避重试策略。
// 第 n 次（1 起算）重试前的延迟为 min(InitialDelay * BackoffFactor^(n-1), MaxDelay)。
type RetryPolicy struct {
	// 最大尝试次数，含首次调用
	MaxAttempts int
	// 首次重试延迟
	InitialDelay time.Duration
	// 退避因子
	BackoffFactor float64
	// 最大延迟
	MaxDelay time.Duration
}

// Retrier 执行带重试的操作
type Retrier struct {
	policy RetryPolicy
}

// NewRetrier 创建重试器
func NewRetrier(policy RetryPolicy) *Retrier {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.BackoffFactor < 1 {
		policy.BackoffFactor = 1
	}
	return &Retrier{policy: policy}
}

// Policy 返回重试策略
func (r *Retrier) Policy() RetryPolicy {
	return r.policy
}

// Execute 执行操作。仅瞬时错误（Transient 标记）消耗重试预算；
// 其余错误立即向调用方传播。退避等待通过 context 感知的 timer 完成，
// 不会阻塞其他 goroutine。预算耗尽后返回最后一次的错误。
func (r *Retrier) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialDelay
	b.Multiplier = r.policy.BackoffFactor
	b.MaxInterval = r.policy.MaxDelay
	b.RandomizationFactor = 0

	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		err := op(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if !IsTransient(err) {
			// 非瞬时错误不重试，立即传播
			return struct{}{}, backoff.Permanent(err)
		}
		if attempt < r.policy.MaxAttempts {
			logger.Warn(ctx, "transient failure, will retry",
				"attempt", attempt,
				"max_attempts", r.policy.MaxAttempts,
				"error", err,
			)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.policy.MaxAttempts)),
	)
	return err
}
