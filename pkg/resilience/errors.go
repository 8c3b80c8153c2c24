// Package resilience 提供重试与熔断的组合原语，以及错误分类约定
package resilience

import (
	"errors"
	"fmt"
)

// ErrServiceUnavailable 熔断器处于 OPEN 状态时的快速失败错误。
// 与瞬时错误和业务错误区分开，调用方可以据此选择延后而不是失败。
var ErrServiceUnavailable = errors.New("service unavailable: circuit breaker open")

// transientError 标记可重试的基础设施错误（超时、5xx、429、连接重置）
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient 将错误标记为瞬时错误，重试器只对瞬时错误消耗重试预算
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// Transientf 构造带格式的瞬时错误
func Transientf(format string, args ...any) error {
	return &transientError{err: fmt.Errorf(format, args...)}
}

// IsTransient 判断错误是否为瞬时错误
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// IsUnavailable 判断错误是否为熔断快速失败
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}
