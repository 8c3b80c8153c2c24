package application

import (
	"context"

	"github.com/wyfcoding/policyadmin/internal/claim/domain"
)

// QueryService 理赔查询服务
type QueryService struct {
	repo domain.ClaimRepository
}

// NewQueryService 创建查询服务
func NewQueryService(repo domain.ClaimRepository) *QueryService {
	return &QueryService{repo: repo}
}

// GetClaim 按报案号查询
func (s *QueryService) GetClaim(ctx context.Context, claimID string) (*domain.Claim, error) {
	return s.repo.FindByClaimID(ctx, claimID)
}

// ListClaimsByPolicy 按保单号查询
func (s *QueryService) ListClaimsByPolicy(ctx context.Context, policyID string) ([]*domain.Claim, error) {
	return s.repo.ListByPolicyID(ctx, policyID)
}
