package domain

import "context"

// AssessmentRepository 风险评估仓储接口
type AssessmentRepository interface {
	Save(ctx context.Context, a *RiskAssessment) error
	FindByAssessmentID(ctx context.Context, assessmentID string) (*RiskAssessment, error)
	// FindLatestByPolicyID 返回保单的最新版本评估，不存在时返回 gorm.ErrRecordNotFound。
	FindLatestByPolicyID(ctx context.Context, policyID string) (*RiskAssessment, error)
}

// DecisionRepository 核保决策仓储接口
type DecisionRepository interface {
	Save(ctx context.Context, d *UnderwritingDecision) error
	FindByDecisionID(ctx context.Context, decisionID string) (*UnderwritingDecision, error)
	FindLatestByPolicyID(ctx context.Context, policyID string) (*UnderwritingDecision, error)
	// FindByAssessmentID 按评估查决策，用于消费侧幂等判断。
	FindByAssessmentID(ctx context.Context, assessmentID string) (*UnderwritingDecision, error)
}
