// Package domain 保单仓储接口
package domain

import "context"

// PolicyRepository 保单仓储
type PolicyRepository interface {
	Save(ctx context.Context, policy *Policy) error
	FindByPolicyID(ctx context.Context, policyID string) (*Policy, error)
	List(ctx context.Context, status Status, limit, offset int) ([]*Policy, error)
}
