// Package domain 理赔仓储接口
package domain

import "context"

// ClaimRepository 理赔仓储
type ClaimRepository interface {
	Save(ctx context.Context, claim *Claim) error
	FindByClaimID(ctx context.Context, claimID string) (*Claim, error)
	ListByPolicyID(ctx context.Context, policyID string) ([]*Claim, error)
}
