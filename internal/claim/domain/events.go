// Package domain 理赔领域事件
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/policyadmin/internal/event"
)

// ClaimCreatedEvent 报案创建事件
type ClaimCreatedEvent struct {
	ClaimID       string          `json:"claim_id"`
	PolicyID      string          `json:"policy_id"`
	ReserveAmount decimal.Decimal `json:"reserve_amount"`
	Timestamp     time.Time       `json:"timestamp"`
}

func (e *ClaimCreatedEvent) EventType() event.Type { return event.TypeClaimCreated }
func (e *ClaimCreatedEvent) AggregateID() string   { return e.ClaimID }

// ClaimStatusChangedEvent 理赔状态变更事件。API 层发布变更请求，
// 消费端以状态机校验 ToStatus 后才落地；FromStatus 为事件产生时的状态，仅作追溯。
type ClaimStatusChangedEvent struct {
	ClaimID    string    `json:"claim_id"`
	PolicyID   string    `json:"policy_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	Actor      string    `json:"actor"`
	Notes      string    `json:"notes"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *ClaimStatusChangedEvent) EventType() event.Type { return event.TypeClaimStatusChanged }
func (e *ClaimStatusChangedEvent) AggregateID() string   { return e.ClaimID }
