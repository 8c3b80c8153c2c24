package application

import (
	"context"

	"github.com/wyfcoding/policyadmin/internal/policy/domain"
)

// QueryService 保单查询服务
type QueryService struct {
	repo domain.PolicyRepository
}

// NewQueryService 创建查询服务
func NewQueryService(repo domain.PolicyRepository) *QueryService {
	return &QueryService{repo: repo}
}

// GetPolicy 按保单号查询
func (s *QueryService) GetPolicy(ctx context.Context, policyID string) (*domain.Policy, error) {
	return s.repo.FindByPolicyID(ctx, policyID)
}

// ListPolicies 按状态分页查询
func (s *QueryService) ListPolicies(ctx context.Context, status domain.Status, limit, offset int) ([]*domain.Policy, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, status, limit, offset)
}
