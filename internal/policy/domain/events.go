// Package domain 保单领域事件
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/policyadmin/internal/event"
)

// PolicyCreatedEvent 保单创建事件
type PolicyCreatedEvent struct {
	PolicyID    string          `json:"policy_id"`
	HolderID    string          `json:"holder_id"`
	ProductCode string          `json:"product_code"`
	Premium     decimal.Decimal `json:"premium"`
	Timestamp   time.Time       `json:"timestamp"`
}

func (e *PolicyCreatedEvent) EventType() event.Type { return event.TypePolicyCreated }
func (e *PolicyCreatedEvent) AggregateID() string   { return e.PolicyID }

// PolicyUpdatedEvent 保单更新事件
type PolicyUpdatedEvent struct {
	PolicyID  string          `json:"policy_id"`
	Premium   decimal.Decimal `json:"premium"`
	Actor     string          `json:"actor"`
	Timestamp time.Time       `json:"timestamp"`
}

func (e *PolicyUpdatedEvent) EventType() event.Type { return event.TypePolicyUpdated }
func (e *PolicyUpdatedEvent) AggregateID() string   { return e.PolicyID }

// PolicyStatusChangedEvent 保单状态变更事件
type PolicyStatusChangedEvent struct {
	PolicyID   string    `json:"policy_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	Actor      string    `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *PolicyStatusChangedEvent) EventType() event.Type { return event.TypePolicyStatusChanged }
func (e *PolicyStatusChangedEvent) AggregateID() string   { return e.PolicyID }
