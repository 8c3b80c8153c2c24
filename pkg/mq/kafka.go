// Package mq 提供 Kafka producer/consumer 通用实现，支持手动提交、去重、重试、死信队列
package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/policyadmin/pkg/logger"
)

// Config Kafka 配置
type Config struct {
	Brokers        []string
	GroupID        string
	SessionTimeout int
	MaxRetries     int
	RetryBackoff   int
}

// Producer Kafka 生产者
type Producer struct {
	writer *kafka.Writer
	config Config
}

// NewProducer 创建 Kafka 生产者。RequiredAcks 为全部 ISR 副本确认，
// 写入在 broker 侧重试预算耗尽后才向调用方返回失败。
func NewProducer(cfg Config) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxRetries,
		WriteBackoffMin:        time.Duration(cfg.RetryBackoff) * time.Millisecond,
		WriteBackoffMax:        time.Duration(cfg.RetryBackoff*10) * time.Millisecond,
	}

	logger.Info(context.Background(), "Kafka producer created successfully", "brokers", cfg.Brokers)
	return &Producer{
		writer: writer,
		config: cfg,
	}
}

// Publish 发送单条消息。key 为聚合 ID，保证同一聚合的消息落在同一分区。
// 发送失败向调用方传播，由调用方决定是否回滚刚完成的领域变更。
func (p *Producer) Publish(ctx context.Context, topic string, key string, value []byte, headers ...kafka.Header) error {
	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error(ctx, "Failed to publish Kafka message",
			"topic", topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	logger.Debug(ctx, "Kafka message published",
		"topic", topic,
		"key", key,
	)
	return nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Consumer Kafka 消费者，手动提交偏移量。
// 同一分区内的消息严格顺序消费，分区间并行由 consumer group 再均衡决定。
type Consumer struct {
	reader *kafka.Reader
	config Config
}

// NewConsumer 创建 Kafka 消费者
func NewConsumer(cfg Config, topic string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          topic,
		GroupID:        cfg.GroupID,
		SessionTimeout: time.Duration(cfg.SessionTimeout) * time.Second,
		StartOffset:    kafka.FirstOffset,
		MaxBytes:       10e6, // 10MB
	})

	logger.Info(context.Background(), "Kafka consumer created successfully",
		"brokers", cfg.Brokers,
		"topic", topic,
		"group_id", cfg.GroupID,
	)
	return &Consumer{
		reader: reader,
		config: cfg,
	}
}

// Fetch 拉取单条消息，不提交偏移量
func (c *Consumer) Fetch(ctx context.Context) (kafka.Message, error) {
	return c.reader.FetchMessage(ctx)
}

// Commit 提交消息偏移量。只在业务效果成功落地后调用。
func (c *Consumer) Commit(ctx context.Context, msgs ...kafka.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return c.reader.CommitMessages(ctx, msgs...)
}

// Close 关闭消费者
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DLQ 消息附加的失败元数据头
const (
	HeaderErrorMessage  = "error-message"
	HeaderOriginalTopic = "original-topic"
	HeaderFailedAt      = "failed-at"
	HeaderRetryCount    = "retry-count"
)

// DeadLetterQueue 死信队列
type DeadLetterQueue struct {
	producer *Producer
	topic    string
}

// NewDeadLetterQueue 创建死信队列
func NewDeadLetterQueue(producer *Producer, topic string) *DeadLetterQueue {
	return &DeadLetterQueue{
		producer: producer,
		topic:    topic,
	}
}

// Topic 返回死信主题名
func (dlq *DeadLetterQueue) Topic() string {
	return dlq.topic
}

// Send 将原始消息连同失败元数据发送到死信主题
func (dlq *DeadLetterQueue) Send(ctx context.Context, original kafka.Message, cause error, retryCount int) error {
	headers := []kafka.Header{
		{Key: HeaderErrorMessage, Value: []byte(cause.Error())},
		{Key: HeaderOriginalTopic, Value: []byte(original.Topic)},
		{Key: HeaderFailedAt, Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		{Key: HeaderRetryCount, Value: []byte(fmt.Sprintf("%d", retryCount))},
	}

	logger.Warn(ctx, "routing message to dead letter topic",
		"original_topic", original.Topic,
		"dlq_topic", dlq.topic,
		"key", string(original.Key),
		"retry_count", retryCount,
		"error", cause,
	)

	return dlq.producer.Publish(ctx, dlq.topic, string(original.Key), original.Value, headers...)
}
