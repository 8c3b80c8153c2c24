// Package mysql 保单仓储的 GORM 实现
package mysql

import (
	"context"

	"github.com/wyfcoding/policyadmin/internal/policy/domain"
	"gorm.io/gorm"
)

// PolicyRepo 保单仓储实现
type PolicyRepo struct {
	db *gorm.DB
}

// NewPolicyRepo 创建保单仓储
func NewPolicyRepo(db *gorm.DB) domain.PolicyRepository {
	return &PolicyRepo{db: db}
}

// Save 保存保单。新建时直接插入，更新时按主键保存并级联保障与文档。
func (r *PolicyRepo) Save(ctx context.Context, policy *domain.Policy) error {
	if policy.ID == 0 {
		var existing domain.Policy
		if err := r.db.WithContext(ctx).Where("policy_id = ?", policy.PolicyID).First(&existing).Error; err == nil {
			policy.ID = existing.ID
			policy.CreatedAt = existing.CreatedAt
		}
	}
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(policy).Error
}

// FindByPolicyID 按保单号查询，软删除记录自动过滤
func (r *PolicyRepo) FindByPolicyID(ctx context.Context, policyID string) (*domain.Policy, error) {
	var policy domain.Policy
	err := r.db.WithContext(ctx).
		Preload("Coverages").
		Preload("Documents").
		Where("policy_id = ?", policyID).
		First(&policy).Error
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// List 按状态分页
func (r *PolicyRepo) List(ctx context.Context, status domain.Status, limit, offset int) ([]*domain.Policy, error) {
	query := r.db.WithContext(ctx).Preload("Coverages")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var policies []*domain.Policy
	err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&policies).Error
	return policies, err
}
