package application

import (
	"context"

	"github.com/wyfcoding/policyadmin/internal/underwriting/domain"
)

// QueryService 核保查询服务
type QueryService struct {
	assessments domain.AssessmentRepository
	decisions   domain.DecisionRepository
}

// NewQueryService 创建查询服务
func NewQueryService(assessments domain.AssessmentRepository, decisions domain.DecisionRepository) *QueryService {
	return &QueryService{assessments: assessments, decisions: decisions}
}

// GetAssessment 按评估号查询评估
func (s *QueryService) GetAssessment(ctx context.Context, assessmentID string) (*domain.RiskAssessment, error) {
	return s.assessments.FindByAssessmentID(ctx, assessmentID)
}

// LatestAssessment 查询保单最新评估
func (s *QueryService) LatestAssessment(ctx context.Context, policyID string) (*domain.RiskAssessment, error) {
	return s.assessments.FindLatestByPolicyID(ctx, policyID)
}

// GetDecision 按决策号查询决策
func (s *QueryService) GetDecision(ctx context.Context, decisionID string) (*domain.UnderwritingDecision, error) {
	return s.decisions.FindByDecisionID(ctx, decisionID)
}

// LatestDecision 查询保单最新决策
func (s *QueryService) LatestDecision(ctx context.Context, policyID string) (*domain.UnderwritingDecision, error) {
	return s.decisions.FindLatestByPolicyID(ctx, policyID)
}
