// Package mysql 核保仓储的 GORM 实现
package mysql

import (
	"context"

	"github.com/wyfcoding/policyadmin/internal/underwriting/domain"
	"gorm.io/gorm"
)

// AssessmentRepo 风险评估仓储实现
type AssessmentRepo struct {
	db *gorm.DB
}

// NewAssessmentRepo 创建评估仓储
func NewAssessmentRepo(db *gorm.DB) domain.AssessmentRepository {
	return &AssessmentRepo{db: db}
}

// Save 保存评估及其因子明细
func (r *AssessmentRepo) Save(ctx context.Context, a *domain.RiskAssessment) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(a).Error
}

// FindByAssessmentID 按评估号查询
func (r *AssessmentRepo) FindByAssessmentID(ctx context.Context, assessmentID string) (*domain.RiskAssessment, error) {
	var a domain.RiskAssessment
	err := r.db.WithContext(ctx).
		Preload("Factors").
		Where("assessment_id = ?", assessmentID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindLatestByPolicyID 查询保单最新版本的评估
func (r *AssessmentRepo) FindLatestByPolicyID(ctx context.Context, policyID string) (*domain.RiskAssessment, error) {
	var a domain.RiskAssessment
	err := r.db.WithContext(ctx).
		Preload("Factors").
		Where("policy_id = ?", policyID).
		Order("version desc").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// DecisionRepo 核保决策仓储实现
type DecisionRepo struct {
	db *gorm.DB
}

// NewDecisionRepo 创建决策仓储
func NewDecisionRepo(db *gorm.DB) domain.DecisionRepository {
	return &DecisionRepo{db: db}
}

// Save 保存决策并级联复核记录
func (r *DecisionRepo) Save(ctx context.Context, d *domain.UnderwritingDecision) error {
	if d.ID == 0 {
		var existing domain.UnderwritingDecision
		if err := r.db.WithContext(ctx).Where("decision_id = ?", d.DecisionID).First(&existing).Error; err == nil {
			d.ID = existing.ID
			d.CreatedAt = existing.CreatedAt
		}
	}
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(d).Error
}

// FindByDecisionID 按决策号查询
func (r *DecisionRepo) FindByDecisionID(ctx context.Context, decisionID string) (*domain.UnderwritingDecision, error) {
	var d domain.UnderwritingDecision
	err := r.db.WithContext(ctx).
		Preload("Reviews").
		Where("decision_id = ?", decisionID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FindLatestByPolicyID 查询保单最新决策
func (r *DecisionRepo) FindLatestByPolicyID(ctx context.Context, policyID string) (*domain.UnderwritingDecision, error) {
	var d domain.UnderwritingDecision
	err := r.db.WithContext(ctx).
		Preload("Reviews").
		Where("policy_id = ?", policyID).
		Order("decided_at desc").
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FindByAssessmentID 按评估号查询决策，用于消费侧幂等判断
func (r *DecisionRepo) FindByAssessmentID(ctx context.Context, assessmentID string) (*domain.UnderwritingDecision, error) {
	var d domain.UnderwritingDecision
	err := r.db.WithContext(ctx).
		Preload("Reviews").
		Where("assessment_id = ?", assessmentID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}
