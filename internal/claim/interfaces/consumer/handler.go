// Package consumer 理赔事件消费侧：应用异步状态变更
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/policyadmin/internal/claim/application"
	"github.com/wyfcoding/policyadmin/internal/claim/domain"
	"github.com/wyfcoding/policyadmin/internal/event"
	"github.com/wyfcoding/policyadmin/pkg/logger"
)

// Handler 理赔事件处理器。状态变更请求在消费侧统一校验并落地，
// 目标状态已生效时视为重复投递跳过。
type Handler struct {
	commands *application.CommandService
	logger   *slog.Logger
}

// NewHandler 创建处理器
func NewHandler(commands *application.CommandService, logger *slog.Logger) *Handler {
	return &Handler{commands: commands, logger: logger}
}

// Handle 处理一条理赔事件
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	env, err := event.Decode(msg.Value)
	if err != nil {
		return err
	}
	if env.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, env.CorrelationID)
	}

	switch env.EventType {
	case event.TypeClaimCreated:
		var payload domain.ClaimCreatedEvent
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", env.EventType, err)
		}
		// 报案自动初筛：新案进入审核队列
		return h.commands.ApplyStatusChange(ctx, payload.ClaimID, domain.StatusUnderReview, "system", "auto triage")
	case event.TypeClaimStatusChanged:
		var payload domain.ClaimStatusChangedEvent
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", env.EventType, err)
		}
		return h.commands.ApplyStatusChange(ctx, payload.ClaimID, payload.ToStatus, payload.Actor, payload.Notes)
	default:
		return fmt.Errorf("unexpected event type %s on claims topic", env.EventType)
	}
}
