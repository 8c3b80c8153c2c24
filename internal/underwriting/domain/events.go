// Package domain 核保领域事件
package domain

import (
	"time"

	"github.com/wyfcoding/policyadmin/internal/event"
)

// RiskAssessedEvent 风险评估完成事件，触发自动决策。
type RiskAssessedEvent struct {
	AssessmentID string    `json:"assessment_id"`
	PolicyID     string    `json:"policy_id"`
	Score        float64   `json:"score"`
	Version      int       `json:"version"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e *RiskAssessedEvent) EventType() event.Type { return event.TypeRiskAssessed }
func (e *RiskAssessedEvent) AggregateID() string   { return e.PolicyID }

// UnderwritingDecisionMadeEvent 核保决策产出事件。消费侧据此补偿
// 尚未同步成功的承保方推送。
type UnderwritingDecisionMadeEvent struct {
	DecisionID      string          `json:"decision_id"`
	PolicyID        string          `json:"policy_id"`
	AssessmentID    string          `json:"assessment_id"`
	Score           float64         `json:"score"`
	Status          DecisionStatus  `json:"status"`
	AutomationLevel AutomationLevel `json:"automation_level"`
	SyncStatus      SyncStatus      `json:"sync_status"`
	Timestamp       time.Time       `json:"timestamp"`
}

func (e *UnderwritingDecisionMadeEvent) EventType() event.Type { return event.TypeUnderwritingDecisionMade }
func (e *UnderwritingDecisionMadeEvent) AggregateID() string   { return e.PolicyID }
