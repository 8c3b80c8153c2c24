// Package consumer 保单事件消费侧：驱动承保方同步效果
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/policyadmin/internal/carrier"
	"github.com/wyfcoding/policyadmin/internal/event"
	"github.com/wyfcoding/policyadmin/internal/policy/domain"
	"github.com/wyfcoding/policyadmin/pkg/logger"
)

// CarrierGateway 保单同步对承保方的依赖面
type CarrierGateway interface {
	CreatePolicy(ctx context.Context, p *domain.Policy) (*carrier.PolicyResponse, error)
	UpdatePolicy(ctx context.Context, p *domain.Policy) (*carrier.AckResponse, error)
}

// Handler 保单事件处理器。按事件类型分派承保方同步效果，
// 效果幂等：已有对端引用的创建事件跳过，更新按版本号幂等。
type Handler struct {
	repo    domain.PolicyRepository
	gateway CarrierGateway
	logger  *slog.Logger
}

// NewHandler 创建处理器
func NewHandler(repo domain.PolicyRepository, gateway CarrierGateway, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, gateway: gateway, logger: logger}
}

// Handle 处理一条保单事件
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	env, err := event.Decode(msg.Value)
	if err != nil {
		return err
	}
	if env.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, env.CorrelationID)
	}

	switch env.EventType {
	case event.TypePolicyCreated:
		var payload domain.PolicyCreatedEvent
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", env.EventType, err)
		}
		return h.syncCreate(ctx, payload.PolicyID)
	case event.TypePolicyUpdated, event.TypePolicyStatusChanged:
		return h.syncUpdate(ctx, env.AggregateID)
	default:
		return fmt.Errorf("unexpected event type %s on policy topic", env.EventType)
	}
}

// syncCreate 在承保方侧创建保单并回写外部引用
func (h *Handler) syncCreate(ctx context.Context, policyID string) error {
	policy, err := h.repo.FindByPolicyID(ctx, policyID)
	if err != nil {
		return err
	}
	if policy.CarrierRef != nil {
		// 重复投递或重启后重放，效果已落地
		return nil
	}

	resp, err := h.gateway.CreatePolicy(ctx, policy)
	if err != nil {
		return err
	}

	policy.AttachCarrierRef(resp.CarrierRef, resp.Version)
	if err := h.repo.Save(ctx, policy); err != nil {
		return fmt.Errorf("failed to record carrier ref: %w", err)
	}

	h.logger.InfoContext(ctx, "policy synced to carrier",
		"policy_id", policyID,
		"carrier_ref", resp.CarrierRef,
	)
	return nil
}

// syncUpdate 推送保单最新状态。尚无对端引用时退化为创建，
// 覆盖创建事件曾进入死信的场景。
func (h *Handler) syncUpdate(ctx context.Context, policyID string) error {
	policy, err := h.repo.FindByPolicyID(ctx, policyID)
	if err != nil {
		return err
	}
	if policy.CarrierRef == nil {
		return h.syncCreate(ctx, policyID)
	}

	resp, err := h.gateway.UpdatePolicy(ctx, policy)
	if err != nil {
		return err
	}

	policy.AttachCarrierRef(*policy.CarrierRef, resp.Version)
	if err := h.repo.Save(ctx, policy); err != nil {
		return fmt.Errorf("failed to record carrier version: %w", err)
	}

	h.logger.InfoContext(ctx, "policy update synced to carrier",
		"policy_id", policyID,
		"carrier_version", resp.Version,
	)
	return nil
}
