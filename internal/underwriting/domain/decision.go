package domain

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrDecisionFinal 已终态的决策不可再复核
var ErrDecisionFinal = errors.New("decision already final")

// DecisionStatus 核保决策状态
type DecisionStatus string

const (
	DecisionApproved DecisionStatus = "APPROVED"  // 自动通过
	DecisionInReview DecisionStatus = "IN_REVIEW" // 常规人工复核
	DecisionReferred DecisionStatus = "REFERRED"  // 高风险转资深核保人
	DecisionDeclined DecisionStatus = "DECLINED"  // 拒保
)

// AutomationLevel 决策自动化程度
type AutomationLevel string

const (
	AutomationFull    AutomationLevel = "FULL"    // 全自动
	AutomationPartial AutomationLevel = "PARTIAL" // 规则初筛 + 人工复核
	AutomationManual  AutomationLevel = "MANUAL"  // 全人工
)

// SyncStatus 承保方同步状态。同步结果只记录在决策上，
// 不回写、不改变决策状态本身。
type SyncStatus string

const (
	SyncPending SyncStatus = "PENDING"
	SyncSynced  SyncStatus = "SYNCED"
	SyncFailed  SyncStatus = "FAILED"
)

// 自动决策阈值：加权评分不高于 LowRiskThreshold 自动通过，
// 不低于 HighRiskThreshold 转资深核保人，其间进入常规复核。
const (
	LowRiskThreshold  = 30.0
	HighRiskThreshold = 85.0
)

// DecisionReview 人工复核记录，只追加不修改。
type DecisionReview struct {
	gorm.Model
	DecisionRef string `gorm:"column:decision_ref;type:varchar(64);index;not null"`
	Reviewer    string `gorm:"column:reviewer;type:varchar(64);not null"`
	Approved    bool   `gorm:"column:approved;not null"`
	Notes       string `gorm:"column:notes;type:varchar(512)"`
}

// UnderwritingDecision 核保决策聚合。
type UnderwritingDecision struct {
	gorm.Model
	DecisionID      string          `gorm:"column:decision_id;type:varchar(64);uniqueIndex;not null"`
	PolicyID        string          `gorm:"column:policy_id;type:varchar(32);index;not null"`
	AssessmentID    string          `gorm:"column:assessment_id;type:varchar(64);index;not null"`
	Score           float64         `gorm:"column:score;not null"`
	Status          DecisionStatus  `gorm:"column:status;type:varchar(16);not null"`
	AutomationLevel AutomationLevel `gorm:"column:automation_level;type:varchar(16);not null"`
	Condition       string          `gorm:"column:condition_note;type:varchar(256)"`
	DecidedBy       string          `gorm:"column:decided_by;type:varchar(64);not null"`
	DecidedAt       time.Time       `gorm:"column:decided_at;not null"`

	SyncStatus SyncStatus `gorm:"column:sync_status;type:varchar(16);not null;default:'PENDING'"`
	SyncError  string     `gorm:"column:sync_error;type:varchar(512)"`
	SyncedAt   *time.Time `gorm:"column:synced_at"`

	Reviews []DecisionReview `gorm:"foreignKey:DecisionRef;references:DecisionID"`
}

// Decide 纯规则函数：由评估结果产出决策，不触碰任何外部依赖。
func Decide(decisionID string, a *RiskAssessment) *UnderwritingDecision {
	d := &UnderwritingDecision{
		DecisionID:   decisionID,
		PolicyID:     a.PolicyID,
		AssessmentID: a.AssessmentID,
		Score:        a.Score,
		DecidedBy:    "engine",
		DecidedAt:    time.Now(),
		SyncStatus:   SyncPending,
	}
	switch {
	case a.Score <= LowRiskThreshold:
		d.Status = DecisionApproved
		d.AutomationLevel = AutomationFull
	case a.Score >= HighRiskThreshold:
		d.Status = DecisionReferred
		d.AutomationLevel = AutomationManual
		d.Condition = "requires senior underwriter review"
	default:
		d.Status = DecisionInReview
		d.AutomationLevel = AutomationPartial
		d.Condition = "standard review required"
	}
	return d
}

// MarkSynced 记录承保方同步成功。
func (d *UnderwritingDecision) MarkSynced() {
	now := time.Now()
	d.SyncStatus = SyncSynced
	d.SyncError = ""
	d.SyncedAt = &now
}

// MarkSyncFailed 记录同步失败原因，决策状态保持不变。
func (d *UnderwritingDecision) MarkSyncFailed(reason string) {
	d.SyncStatus = SyncFailed
	d.SyncError = reason
}

// NeedsSync 是否仍需向承保方同步：仅自动通过的决策参与同步。
func (d *UnderwritingDecision) NeedsSync() bool {
	return d.Status == DecisionApproved && d.SyncStatus != SyncSynced
}

// Review 追加一条人工复核并落定终态。只有待人工处理的决策可复核，
// 已终态的决策再次复核视为非法操作。
func (d *UnderwritingDecision) Review(reviewer string, approved bool, notes string) error {
	if reviewer == "" {
		return fmt.Errorf("reviewer required")
	}
	if d.Status != DecisionInReview && d.Status != DecisionReferred {
		return fmt.Errorf("decision %s in status %s: %w", d.DecisionID, d.Status, ErrDecisionFinal)
	}
	if approved {
		d.Status = DecisionApproved
	} else {
		d.Status = DecisionDeclined
	}
	d.DecidedBy = reviewer
	d.DecidedAt = time.Now()
	d.Reviews = append(d.Reviews, DecisionReview{
		DecisionRef: d.DecisionID,
		Reviewer:    reviewer,
		Approved:    approved,
		Notes:       notes,
	})
	return nil
}
