// Package application 理赔应用服务
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/policyadmin/internal/claim/domain"
	"github.com/wyfcoding/policyadmin/internal/event"
)

// CommandService 理赔命令服务
type CommandService struct {
	repo      domain.ClaimRepository
	publisher event.Publisher
	logger    *slog.Logger
}

// NewCommandService 创建命令服务
func NewCommandService(repo domain.ClaimRepository, publisher event.Publisher, logger *slog.Logger) *CommandService {
	return &CommandService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateClaim 首次报案，创建理赔并发布 CLAIM_CREATED
func (s *CommandService) CreateClaim(ctx context.Context, policyID, description string, reserve decimal.Decimal, actor string) (*domain.Claim, error) {
	claimID := fmt.Sprintf("CLM-%d", time.Now().UnixNano())

	claim := domain.NewClaim(claimID, policyID, description, reserve, actor)

	if err := s.repo.Save(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to save claim: %w", err)
	}

	if err := s.publisher.Publish(ctx, &domain.ClaimCreatedEvent{
		ClaimID:       claimID,
		PolicyID:      policyID,
		ReserveAmount: reserve,
		Timestamp:     time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to publish claim created event: %w", err)
	}

	s.logger.InfoContext(ctx, "claim created", "claim_id", claimID, "policy_id", policyID)
	return claim, nil
}

// RequestStatusChange 发布状态变更请求。状态机校验在消费端进行，
// 非法请求会进入死信而不是落地。这里只做存在性检查。
func (s *CommandService) RequestStatusChange(ctx context.Context, claimID string, requested domain.Status, actor, notes string) error {
	claim, err := s.repo.FindByClaimID(ctx, claimID)
	if err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, &domain.ClaimStatusChangedEvent{
		ClaimID:    claimID,
		PolicyID:   claim.PolicyID,
		FromStatus: claim.Status,
		ToStatus:   requested,
		Actor:      actor,
		Notes:      notes,
		Timestamp:  time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to publish claim status event: %w", err)
	}

	s.logger.InfoContext(ctx, "claim status change requested",
		"claim_id", claimID,
		"from", claim.Status,
		"to", requested,
		"actor", actor,
	)
	return nil
}

// ApplyStatusChange 应用状态变更。由消费端调用，状态机校验失败原样返回。
func (s *CommandService) ApplyStatusChange(ctx context.Context, claimID string, requested domain.Status, actor, notes string) error {
	claim, err := s.repo.FindByClaimID(ctx, claimID)
	if err != nil {
		return err
	}

	// 重投导致的重复应用：目标状态已生效则幂等返回
	if claim.Status == requested {
		return nil
	}

	if err := claim.TransitionTo(requested, actor, notes); err != nil {
		return err
	}

	if err := s.repo.Save(ctx, claim); err != nil {
		return fmt.Errorf("failed to save claim: %w", err)
	}

	s.logger.InfoContext(ctx, "claim status changed", "claim_id", claimID, "status", requested)
	return nil
}

// AdjustReserve 审计调整准备金
func (s *CommandService) AdjustReserve(ctx context.Context, claimID string, newAmount decimal.Decimal, actor, notes string) error {
	claim, err := s.repo.FindByClaimID(ctx, claimID)
	if err != nil {
		return err
	}

	if err := claim.AdjustReserve(newAmount, actor, notes); err != nil {
		return err
	}

	return s.repo.Save(ctx, claim)
}

// RecordPayment 记录赔付
func (s *CommandService) RecordPayment(ctx context.Context, claimID string, amount decimal.Decimal) error {
	claim, err := s.repo.FindByClaimID(ctx, claimID)
	if err != nil {
		return err
	}

	if err := claim.RecordPayment(amount); err != nil {
		return err
	}

	return s.repo.Save(ctx, claim)
}
