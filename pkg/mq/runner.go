package mq

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/policyadmin/pkg/logger"
	"github.com/wyfcoding/policyadmin/pkg/metrics"
	"github.com/wyfcoding/policyadmin/pkg/resilience"
)

// Handler 消息的业务效果入口
type Handler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// HandlerFunc 函数适配器
type HandlerFunc func(ctx context.Context, msg kafka.Message) error

// Handle 实现 Handler
func (f HandlerFunc) Handle(ctx context.Context, msg kafka.Message) error {
	return f(ctx, msg)
}

// MessageSource 消息来源，Consumer 实现该接口
type MessageSource interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msgs ...kafka.Message) error
}

// DeadLetterSink 死信出口，DeadLetterQueue 实现该接口
type DeadLetterSink interface {
	Send(ctx context.Context, original kafka.Message, cause error, retryCount int) error
}

// EventIDFunc 从消息中解析去重键。解析失败视为消息损坏，直接进死信。
type EventIDFunc func(msg kafka.Message) (string, error)

// Runner 消费循环：逐条拉取、去重、执行业务效果、按结果提交或进死信。
// 单个 Runner 串行处理其分区内的消息，保证同一聚合的事件按生产顺序生效。
type Runner struct {
	name    string
	source  MessageSource
	dlq     DeadLetterSink
	dedup   *Deduplicator
	retrier *resilience.Retrier
	eventID EventIDFunc
	handler Handler
	metrics *metrics.Metrics
}

// NewRunner 创建消费循环
func NewRunner(
	name string,
	source MessageSource,
	dlq DeadLetterSink,
	dedup *Deduplicator,
	retrier *resilience.Retrier,
	eventID EventIDFunc,
	handler Handler,
	m *metrics.Metrics,
) *Runner {
	return &Runner{
		name:    name,
		source:  source,
		dlq:     dlq,
		dedup:   dedup,
		retrier: retrier,
		eventID: eventID,
		handler: handler,
		metrics: m,
	}
}

// Run 启动消费循环，阻塞直到 ctx 取消。
// 收到停止信号后不再拉取新消息，但在途消息的重试循环允许跑完，
// 不会在效果落地与提交之间被打断；重启后的重复处理由去重与幂等效果兜底。
func (r *Runner) Run(ctx context.Context) error {
	logger.Info(ctx, "consumer runner started", "runner", r.name)

	for {
		msg, err := r.source.Fetch(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				logger.Info(ctx, "consumer runner stopped", "runner", r.name)
				return nil
			}
			logger.Error(ctx, "failed to fetch message", "runner", r.name, "error", err)
			time.Sleep(time.Second)
			continue
		}

		// 在途消息的处理不随停机取消，由各自的单次超时约束
		r.ProcessOne(context.WithoutCancel(ctx), msg)
	}
}

// ProcessOne 处理一条消息：去重、执行效果、提交或进死信。
// 偏移量只在效果落地或死信写入成功后提交；两者都失败时不提交，
// 消息按 at-least-once 语义重投。
func (r *Runner) ProcessOne(ctx context.Context, msg kafka.Message) {
	start := time.Now()

	id, err := r.eventID(msg)
	if err != nil {
		// 损坏的消息无法通过重试修复，不消耗重试预算
		r.deadLetter(ctx, msg, err, 0)
		return
	}

	ctx = logger.WithCorrelationID(ctx, id)

	if r.dedup != nil && r.dedup.Seen(id) {
		logger.Debug(ctx, "duplicate event skipped", "runner", r.name, "event_id", id)
		if r.metrics != nil {
			r.metrics.EventsDeduplicated.WithLabelValues(msg.Topic).Inc()
		}
		r.commit(ctx, msg)
		return
	}

	attempts := 0
	err = r.retrier.Execute(ctx, func(ctx context.Context) error {
		attempts++
		return r.handler.Handle(ctx, msg)
	})

	if r.metrics != nil {
		r.metrics.EventHandleDuration.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		if r.metrics != nil {
			r.metrics.EventsConsumed.WithLabelValues(msg.Topic, "error").Inc()
		}
		r.deadLetter(ctx, msg, err, attempts)
		return
	}

	if r.dedup != nil {
		r.dedup.Mark(id)
	}
	if r.metrics != nil {
		r.metrics.EventsConsumed.WithLabelValues(msg.Topic, "ok").Inc()
	}
	r.commit(ctx, msg)
}

// deadLetter 将消息写入死信主题后提交原消息，让消费组继续前进。
// 死信写入失败时不提交，等待重投。
func (r *Runner) deadLetter(ctx context.Context, msg kafka.Message, cause error, retryCount int) {
	if err := r.dlq.Send(ctx, msg, cause, retryCount); err != nil {
		logger.Error(ctx, "failed to publish to dead letter topic, leaving offset uncommitted",
			"runner", r.name,
			"topic", msg.Topic,
			"error", err,
		)
		return
	}
	if r.metrics != nil {
		r.metrics.EventsDeadLettered.WithLabelValues(msg.Topic).Inc()
	}
	r.commit(ctx, msg)
}

func (r *Runner) commit(ctx context.Context, msg kafka.Message) {
	if err := r.source.Commit(ctx, msg); err != nil {
		logger.Error(ctx, "failed to commit offset",
			"runner", r.name,
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
	}
}
