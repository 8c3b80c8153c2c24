// Package mysql 理赔仓储的 GORM 实现
package mysql

import (
	"context"

	"github.com/wyfcoding/policyadmin/internal/claim/domain"
	"gorm.io/gorm"
)

// ClaimRepo 理赔仓储实现
type ClaimRepo struct {
	db *gorm.DB
}

// NewClaimRepo 创建理赔仓储
func NewClaimRepo(db *gorm.DB) domain.ClaimRepository {
	return &ClaimRepo{db: db}
}

// Save 保存理赔并级联历史与审计记录
func (r *ClaimRepo) Save(ctx context.Context, claim *domain.Claim) error {
	if claim.ID == 0 {
		var existing domain.Claim
		if err := r.db.WithContext(ctx).Where("claim_id = ?", claim.ClaimID).First(&existing).Error; err == nil {
			claim.ID = existing.ID
			claim.CreatedAt = existing.CreatedAt
		}
	}
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(claim).Error
}

// FindByClaimID 按报案号查询
func (r *ClaimRepo) FindByClaimID(ctx context.Context, claimID string) (*domain.Claim, error) {
	var claim domain.Claim
	err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("changed_at asc") }).
		Preload("Adjustments").
		Where("claim_id = ?", claimID).
		First(&claim).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// ListByPolicyID 按保单号查询
func (r *ClaimRepo) ListByPolicyID(ctx context.Context, policyID string) ([]*domain.Claim, error) {
	var claims []*domain.Claim
	err := r.db.WithContext(ctx).
		Where("policy_id = ?", policyID).
		Order("created_at desc").
		Find(&claims).Error
	return claims, err
}
