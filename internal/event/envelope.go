// Package event 定义领域事件信封与编解码
// 生成摘要：
// 1) 封闭的事件类型枚举与主题映射
// 2) 信封编解码，解码失败为不可重试错误
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Type 事件类型，封闭枚举。新增类型必须同步更新 validTypes 与所有 dispatch switch。
type Type string

const (
	TypePolicyCreated            Type = "POLICY_CREATED"
	TypePolicyUpdated            Type = "POLICY_UPDATED"
	TypePolicyStatusChanged      Type = "POLICY_STATUS_CHANGED"
	TypeClaimCreated             Type = "CLAIM_CREATED"
	TypeClaimStatusChanged       Type = "CLAIM_STATUS_CHANGED"
	TypeRiskAssessed             Type = "RISK_ASSESSED"
	TypeUnderwritingDecisionMade Type = "UNDERWRITING_DECISION_MADE"
)

var validTypes = map[Type]struct{}{
	TypePolicyCreated:            {},
	TypePolicyUpdated:            {},
	TypePolicyStatusChanged:      {},
	TypeClaimCreated:             {},
	TypeClaimStatusChanged:       {},
	TypeRiskAssessed:             {},
	TypeUnderwritingDecisionMade: {},
}

// Valid 判断事件类型是否在封闭枚举内
func (t Type) Valid() bool {
	_, ok := validTypes[t]
	return ok
}

// 主题名。消息 key 为聚合 ID，保证分区级顺序。
const (
	TopicPolicyEvents       = "policy-events"
	TopicClaimsEvents       = "claims-events"
	TopicUnderwritingEvents = "underwriting-events"
)

// DLQTopic 返回主题对应的死信主题名
func DLQTopic(topic string) string {
	return topic + "-dlq"
}

// TopicFor 返回事件类型所属的主题
func TopicFor(t Type) string {
	switch t {
	case TypePolicyCreated, TypePolicyUpdated, TypePolicyStatusChanged:
		return TopicPolicyEvents
	case TypeClaimCreated, TypeClaimStatusChanged:
		return TopicClaimsEvents
	case TypeRiskAssessed, TypeUnderwritingDecisionMade:
		return TopicUnderwritingEvents
	default:
		return TopicPolicyEvents
	}
}

// Envelope 领域事件信封
type Envelope struct {
	// 事件唯一标识，消费端以此去重
	EventID string `json:"event_id"`
	// 事件类型
	EventType Type `json:"event_type"`
	// 聚合 ID（保单号或报案号），作为分区键保证同聚合有序
	AggregateID string `json:"aggregate_id"`
	// 类型相关载荷
	Payload json.RawMessage `json:"payload"`
	// 事件发生时间
	OccurredAt time.Time `json:"occurred_at"`
	// 调用链标识
	CorrelationID string `json:"correlation_id"`
	// 重投计数，从 0 开始
	Attempt int `json:"attempt"`
}

// Payloader 领域事件载荷需要实现的接口
type Payloader interface {
	EventType() Type
	AggregateID() string
}

// New 从领域事件载荷构建信封
func New(p Payloader, correlationID string) (Envelope, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal event payload: %w", err)
	}
	return Envelope{
		EventID:       uuid.New().String(),
		EventType:     p.EventType(),
		AggregateID:   p.AggregateID(),
		Payload:       data,
		OccurredAt:    time.Now().UTC(),
		CorrelationID: correlationID,
	}, nil
}

// Encode 将信封序列化为字节。对结构完整的信封永不失败。
func Encode(e Envelope) []byte {
	data, _ := json.Marshal(e)
	return data
}

// DecodeError 信封解码失败。损坏的字节不会因重试而修复，
// 该错误不可重试，直接进死信。
type DecodeError struct {
	cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode event envelope: %v", e.cause)
}

func (e *DecodeError) Unwrap() error {
	return e.cause
}

// Decode 从字节解析信封并做基本校验
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, &DecodeError{cause: err}
	}
	if e.EventID == "" {
		return Envelope{}, &DecodeError{cause: fmt.Errorf("missing event_id")}
	}
	if !e.EventType.Valid() {
		return Envelope{}, &DecodeError{cause: fmt.Errorf("unknown event type %q", e.EventType)}
	}
	if e.AggregateID == "" {
		return Envelope{}, &DecodeError{cause: fmt.Errorf("missing aggregate_id")}
	}
	return e, nil
}

// IDFromMessage 从 Kafka 消息解析事件 ID，供消费循环做去重键。
// 解码失败原样返回 DecodeError。
func IDFromMessage(msg kafka.Message) (string, error) {
	e, err := Decode(msg.Value)
	if err != nil {
		return "", err
	}
	return e.EventID, nil
}
