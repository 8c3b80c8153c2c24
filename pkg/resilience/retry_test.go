package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   maxAttempts,
		InitialDelay:  time.Millisecond,
		BackoffFactor: 2,
		MaxDelay:      5 * time.Millisecond,
	}
}

func TestRetryTransientUntilSuccess(t *testing.T) {
	r := NewRetrier(fastPolicy(5))

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Transientf("attempt %d failed", calls)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsBudget(t *testing.T) {
	r := NewRetrier(fastPolicy(3))

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return Transient(errors.New("still down"))
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, IsTransient(err))
}

func TestPermanentErrorNotRetried(t *testing.T) {
	r := NewRetrier(fastPolicy(5))

	permanent := errors.New("validation rejected")
	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestBreakerOpenErrorNotRetried(t *testing.T) {
	// 熔断快速失败不是瞬时错误：重试器不应在 OPEN 期间空转
	r := NewRetrier(fastPolicy(5))

	calls := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return ErrServiceUnavailable
	})

	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Equal(t, 1, calls)
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	r := NewRetrier(RetryPolicy{
		MaxAttempts:   10,
		InitialDelay:  50 * time.Millisecond,
		BackoffFactor: 2,
		MaxDelay:      time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := r.Execute(ctx, func(ctx context.Context) error {
		calls++
		return Transient(errors.New("down"))
	})

	require.Error(t, err)
	assert.Less(t, calls, 10)
}

func TestErrorClassification(t *testing.T) {
	assert.Nil(t, Transient(nil))

	wrapped := Transientf("wrapping: %w", errors.New("inner"))
	assert.True(t, IsTransient(wrapped))
	assert.False(t, IsTransient(errors.New("plain")))

	assert.True(t, IsUnavailable(ErrServiceUnavailable))
	assert.False(t, IsUnavailable(Transient(errors.New("x"))))
}
