package event

import (
	"context"

	"github.com/wyfcoding/policyadmin/pkg/logger"
	"github.com/wyfcoding/policyadmin/pkg/metrics"
	"github.com/wyfcoding/policyadmin/pkg/mq"
)

// Publisher 领域事件发布接口，应用服务依赖该接口
type Publisher interface {
	Publish(ctx context.Context, payload Payloader) error
}

// KafkaPublisher 基于 Kafka 的事件发布实现。
// 发布等待全部 ISR 副本确认；broker 侧重试预算耗尽后错误原样返回调用方，
// 由调用方决定是否回滚其刚完成的领域变更，绝不静默丢弃。
type KafkaPublisher struct {
	producer *mq.Producer
	metrics  *metrics.Metrics
}

// NewKafkaPublisher 创建事件发布器
func NewKafkaPublisher(producer *mq.Producer, m *metrics.Metrics) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, metrics: m}
}

// Publish 构建信封并发送，key 为聚合 ID
func (p *KafkaPublisher) Publish(ctx context.Context, payload Payloader) error {
	env, err := New(payload, logger.CorrelationID(ctx))
	if err != nil {
		return err
	}

	topic := TopicFor(env.EventType)
	if err := p.producer.Publish(ctx, topic, env.AggregateID, Encode(env)); err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.EventsProduced.WithLabelValues(topic).Inc()
	}

	logger.Debug(ctx, "domain event published",
		"event_id", env.EventID,
		"event_type", env.EventType,
		"aggregate_id", env.AggregateID,
		"topic", topic,
	)
	return nil
}
