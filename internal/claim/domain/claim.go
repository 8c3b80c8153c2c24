// Package domain 理赔领域层
// 生成摘要：
// 1) 定义报案（claim）聚合根与状态历史
// 2) 定义理赔生命周期状态机
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Status 理赔状态
type Status string

const (
	StatusNew         Status = "NEW"          // 新报案
	StatusUnderReview Status = "UNDER_REVIEW" // 审核中
	StatusPendingInfo Status = "PENDING_INFO" // 待补充材料
	StatusApproved    Status = "APPROVED"     // 已核准
	StatusInPayment   Status = "IN_PAYMENT"   // 赔付中
	StatusPaid        Status = "PAID"         // 已赔付
	StatusDenied      Status = "DENIED"       // 已拒赔
	StatusClosed      Status = "CLOSED"       // 已结案
	StatusReopened    Status = "REOPENED"     // 已重开
)

// Claim 报案聚合根。准备金与已付金额只增不减，
// 下调必须走带审计记录的调整操作，绝不静默覆盖。
type Claim struct {
	gorm.Model
	ClaimID  string `gorm:"column:claim_id;type:varchar(32);uniqueIndex;not null"`
	PolicyID string `gorm:"column:policy_id;type:varchar(32);index;not null"`
	Status   Status `gorm:"column:status;type:varchar(16);not null;default:'NEW'"`

	// 准备金
	ReserveAmount decimal.Decimal `gorm:"column:reserve_amount;type:decimal(18,2)"`
	// 已付金额
	PaidAmount decimal.Decimal `gorm:"column:paid_amount;type:decimal(18,2)"`
	// 损失描述
	Description string `gorm:"column:description;type:varchar(512)"`

	// 状态历史，只追加
	History []StatusChange `gorm:"foreignKey:ClaimRef;references:ClaimID"`
	// 金额调整审计日志，只追加
	Adjustments []Adjustment `gorm:"foreignKey:ClaimRef;references:ClaimID"`
}

// TableName 表名
func (Claim) TableName() string {
	return "claims"
}

// StatusChange 状态历史条目
type StatusChange struct {
	gorm.Model
	ClaimRef  string    `gorm:"column:claim_ref;type:varchar(32);index;not null"`
	Status    Status    `gorm:"column:status;type:varchar(16);not null"`
	Actor     string    `gorm:"column:actor;type:varchar(64);not null"`
	Notes     string    `gorm:"column:notes;type:varchar(512)"`
	ChangedAt time.Time `gorm:"column:changed_at;not null"`
}

// TableName 表名
func (StatusChange) TableName() string {
	return "claim_status_history"
}

// Adjustment 金额调整审计条目
type Adjustment struct {
	gorm.Model
	ClaimRef  string          `gorm:"column:claim_ref;type:varchar(32);index;not null"`
	Field     string          `gorm:"column:field;type:varchar(32);not null"`
	OldAmount decimal.Decimal `gorm:"column:old_amount;type:decimal(18,2)"`
	NewAmount decimal.Decimal `gorm:"column:new_amount;type:decimal(18,2)"`
	Actor     string          `gorm:"column:actor;type:varchar(64);not null"`
	Notes     string          `gorm:"column:notes;type:varchar(512);not null"`
}

// TableName 表名
func (Adjustment) TableName() string {
	return "claim_adjustments"
}

// NewClaim 首次报案（first notice of loss）创建，初始状态 NEW
func NewClaim(claimID, policyID, description string, reserve decimal.Decimal, actor string) *Claim {
	return &Claim{
		ClaimID:       claimID,
		PolicyID:      policyID,
		Status:        StatusNew,
		ReserveAmount: reserve,
		PaidAmount:    decimal.Zero,
		Description:   description,
		History: []StatusChange{{
			ClaimRef:  claimID,
			Status:    StatusNew,
			Actor:     actor,
			Notes:     "first notice of loss",
			ChangedAt: time.Now(),
		}},
	}
}

// TransitionTo 应用状态迁移并追加历史。非法迁移返回 InvalidTransitionError，
// 绝不静默纠正为"最接近的合法状态"。
func (c *Claim) TransitionTo(requested Status, actor, notes string) error {
	if err := CanTransition(c.Status, requested); err != nil {
		return err
	}

	c.Status = requested
	c.History = append(c.History, StatusChange{
		ClaimRef:  c.ClaimID,
		Status:    requested,
		Actor:     actor,
		Notes:     notes,
		ChangedAt: time.Now(),
	})

	return nil
}

// IncreaseReserve 追加准备金
func (c *Claim) IncreaseReserve(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("reserve increase must be positive")
	}
	c.ReserveAmount = c.ReserveAmount.Add(amount)
	return nil
}

// AdjustReserve 显式调整准备金，允许下调，必须带操作者与说明并记录审计
func (c *Claim) AdjustReserve(newAmount decimal.Decimal, actor, notes string) error {
	if actor == "" || notes == "" {
		return errors.New("reserve adjustment requires actor and notes")
	}
	if newAmount.IsNegative() {
		return errors.New("reserve amount cannot be negative")
	}

	c.Adjustments = append(c.Adjustments, Adjustment{
		ClaimRef:  c.ClaimID,
		Field:     "reserve_amount",
		OldAmount: c.ReserveAmount,
		NewAmount: newAmount,
		Actor:     actor,
		Notes:     notes,
	})
	c.ReserveAmount = newAmount
	return nil
}

// RecordPayment 记录赔付，已付金额只增
func (c *Claim) RecordPayment(amount decimal.Decimal) error {
	if c.Status != StatusInPayment {
		return errors.New("payments can only be recorded while in payment")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("payment amount must be positive")
	}
	c.PaidAmount = c.PaidAmount.Add(amount)
	return nil
}
