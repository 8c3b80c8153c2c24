// Package consumer 核保事件消费侧：事件驱动决策与同步补偿
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/policyadmin/internal/event"
	"github.com/wyfcoding/policyadmin/internal/underwriting/application"
	"github.com/wyfcoding/policyadmin/internal/underwriting/domain"
	"github.com/wyfcoding/policyadmin/pkg/logger"
)

// Handler 核保事件处理器。RISK_ASSESSED 触发自动决策，
// UNDERWRITING_DECISION_MADE 对未同步成功的决策做承保方补偿。
type Handler struct {
	engine *application.Engine
	logger *slog.Logger
}

// NewHandler 创建处理器
func NewHandler(engine *application.Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Handle 处理一条核保事件
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	env, err := event.Decode(msg.Value)
	if err != nil {
		return err
	}
	if env.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, env.CorrelationID)
	}

	switch env.EventType {
	case event.TypeRiskAssessed:
		var payload domain.RiskAssessedEvent
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", env.EventType, err)
		}
		_, err := h.engine.DecideForAssessment(ctx, payload.AssessmentID)
		return err
	case event.TypeUnderwritingDecisionMade:
		var payload domain.UnderwritingDecisionMadeEvent
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", env.EventType, err)
		}
		if payload.SyncStatus == domain.SyncSynced {
			return nil
		}
		return h.engine.RetrySync(ctx, payload.DecisionID)
	default:
		return fmt.Errorf("unexpected event type %s on underwriting topic", env.EventType)
	}
}
