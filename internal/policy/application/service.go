// Package application 保单应用服务
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/policyadmin/internal/event"
	"github.com/wyfcoding/policyadmin/internal/policy/domain"
)

// CreatePolicyCommand 创建保单命令
type CreatePolicyCommand struct {
	HolderID    string
	ProductCode string
	Premium     decimal.Decimal
	Coverages   []CoverageInput
}

// CoverageInput 保障输入
type CoverageInput struct {
	Code       string
	Limit      decimal.Decimal
	Deductible decimal.Decimal
}

// CommandService 保单命令服务
type CommandService struct {
	repo      domain.PolicyRepository
	publisher event.Publisher
	logger    *slog.Logger
}

// NewCommandService 创建命令服务
func NewCommandService(repo domain.PolicyRepository, publisher event.Publisher, logger *slog.Logger) *CommandService {
	return &CommandService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// CreatePolicy 按报价请求创建保单，初始状态 DRAFT
func (s *CommandService) CreatePolicy(ctx context.Context, cmd CreatePolicyCommand) (*domain.Policy, error) {
	policyID := fmt.Sprintf("POL-%d", time.Now().UnixNano())

	coverages := make([]domain.Coverage, 0, len(cmd.Coverages))
	for _, c := range cmd.Coverages {
		coverages = append(coverages, domain.Coverage{
			PolicyRef:  policyID,
			Code:       c.Code,
			Limit:      c.Limit,
			Deductible: c.Deductible,
		})
	}

	policy := domain.NewPolicy(policyID, cmd.HolderID, cmd.ProductCode, cmd.Premium, coverages)

	if err := s.repo.Save(ctx, policy); err != nil {
		return nil, fmt.Errorf("failed to save policy: %w", err)
	}

	if err := s.publishEvents(ctx, policy); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "policy created", "policy_id", policyID, "holder_id", cmd.HolderID)
	return policy, nil
}

// UpdatePolicy 更新保费与保障
func (s *CommandService) UpdatePolicy(ctx context.Context, policyID string, premium decimal.Decimal, coverages []CoverageInput, actor string) error {
	policy, err := s.repo.FindByPolicyID(ctx, policyID)
	if err != nil {
		return err
	}

	var cs []domain.Coverage
	if len(coverages) > 0 {
		cs = make([]domain.Coverage, 0, len(coverages))
		for _, c := range coverages {
			cs = append(cs, domain.Coverage{
				PolicyRef:  policyID,
				Code:       c.Code,
				Limit:      c.Limit,
				Deductible: c.Deductible,
			})
		}
	}

	policy.UpdatePremium(premium, cs, actor)

	if err := s.repo.Save(ctx, policy); err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}

	return s.publishEvents(ctx, policy)
}

// ChangeStatus 请求保单状态迁移。状态机校验失败立即返回，不发布事件。
func (s *CommandService) ChangeStatus(ctx context.Context, policyID string, requested domain.Status, actor string) error {
	policy, err := s.repo.FindByPolicyID(ctx, policyID)
	if err != nil {
		return err
	}

	if err := policy.TransitionTo(requested, actor); err != nil {
		return err
	}

	if err := s.repo.Save(ctx, policy); err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}

	s.logger.InfoContext(ctx, "policy status changed",
		"policy_id", policyID,
		"status", requested,
		"actor", actor,
	)
	return s.publishEvents(ctx, policy)
}

// AddDocument 附加保单文档
func (s *CommandService) AddDocument(ctx context.Context, policyID, name, url string) error {
	policy, err := s.repo.FindByPolicyID(ctx, policyID)
	if err != nil {
		return err
	}

	policy.AddDocument(name, url)
	return s.repo.Save(ctx, policy)
}

// publishEvents 发布聚合上积累的领域事件。
// 发布失败向调用方传播，变更已持久化，由调用方决定补偿策略。
func (s *CommandService) publishEvents(ctx context.Context, policy *domain.Policy) error {
	for _, e := range policy.GetDomainEvents() {
		if err := s.publisher.Publish(ctx, e); err != nil {
			return fmt.Errorf("failed to publish policy event: %w", err)
		}
	}
	policy.ClearDomainEvents()
	return nil
}
