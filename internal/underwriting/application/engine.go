// Package application 核保应用服务
// 生成摘要：
// 1) 风险评估与自动决策引擎
// 2) 决策的承保方同步与人工复核
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/policyadmin/internal/carrier"
	"github.com/wyfcoding/policyadmin/internal/event"
	policydomain "github.com/wyfcoding/policyadmin/internal/policy/domain"
	"github.com/wyfcoding/policyadmin/internal/underwriting/domain"
	"github.com/wyfcoding/policyadmin/pkg/metrics"
	"gorm.io/gorm"
)

// CarrierGateway 引擎对承保方的最小依赖面
type CarrierGateway interface {
	Healthy(ctx context.Context) bool
	SyncDecision(ctx context.Context, d *domain.UnderwritingDecision) (*carrier.AckResponse, error)
}

// Engine 核保引擎。评估与决策分离：评估由 API 侧触发并发布事件，
// 决策由消费侧基于事件驱动，重复投递通过评估号幂等去重。
type Engine struct {
	assessments domain.AssessmentRepository
	decisions   domain.DecisionRepository
	policies    policydomain.PolicyRepository
	gateway     CarrierGateway
	publisher   event.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewEngine 创建核保引擎
func NewEngine(
	assessments domain.AssessmentRepository,
	decisions domain.DecisionRepository,
	policies policydomain.PolicyRepository,
	gateway CarrierGateway,
	publisher event.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		assessments: assessments,
		decisions:   decisions,
		policies:    policies,
		gateway:     gateway,
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
	}
}

// Assess 对保单执行一次风险评估。版本号在该保单历史评估上递增，
// 评分同步写回保单承保信息，随后发布评估完成事件驱动决策。
func (e *Engine) Assess(ctx context.Context, policyID string, scores domain.FactorScores) (*domain.RiskAssessment, error) {
	policy, err := e.policies.FindByPolicyID(ctx, policyID)
	if err != nil {
		return nil, err
	}

	version := 1
	if latest, err := e.assessments.FindLatestByPolicyID(ctx, policyID); err == nil {
		version = latest.Version + 1
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	assessment, err := domain.NewRiskAssessment("ASM-"+uuid.NewString(), policyID, scores, version)
	if err != nil {
		return nil, err
	}
	if err := e.assessments.Save(ctx, assessment); err != nil {
		return nil, fmt.Errorf("failed to save assessment: %w", err)
	}

	policy.SetRiskScore(assessment.Score, "")
	if err := e.policies.Save(ctx, policy); err != nil {
		return nil, fmt.Errorf("failed to record risk score on policy: %w", err)
	}

	if err := e.publisher.Publish(ctx, &domain.RiskAssessedEvent{
		AssessmentID: assessment.AssessmentID,
		PolicyID:     policyID,
		Score:        assessment.Score,
		Version:      assessment.Version,
		Timestamp:    assessment.AssessedAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish assessment event: %w", err)
	}

	e.logger.InfoContext(ctx, "risk assessed",
		"policy_id", policyID,
		"assessment_id", assessment.AssessmentID,
		"score", assessment.Score,
		"version", assessment.Version,
	)
	return assessment, nil
}

// DecideForAssessment 基于评估产出决策。同一评估只产出一个决策，
// 重复调用返回已有决策。自动通过的决策随即尝试承保方同步：
// 同步结果只记录在决策上，失败不改变决策状态，也不向上返回错误。
func (e *Engine) DecideForAssessment(ctx context.Context, assessmentID string) (*domain.UnderwritingDecision, error) {
	if existing, err := e.decisions.FindByAssessmentID(ctx, assessmentID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	assessment, err := e.assessments.FindByAssessmentID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	decision := domain.Decide("DEC-"+uuid.NewString(), assessment)
	if decision.NeedsSync() {
		e.syncToCarrier(ctx, decision)
	}

	if err := e.decisions.Save(ctx, decision); err != nil {
		return nil, fmt.Errorf("failed to save decision: %w", err)
	}
	if e.metrics != nil {
		e.metrics.DecisionsTotal.WithLabelValues(string(decision.Status)).Inc()
	}

	if err := e.publisher.Publish(ctx, decisionMadeEvent(decision)); err != nil {
		return nil, fmt.Errorf("failed to publish decision event: %w", err)
	}

	e.logger.InfoContext(ctx, "underwriting decision made",
		"policy_id", decision.PolicyID,
		"decision_id", decision.DecisionID,
		"status", decision.Status,
		"score", decision.Score,
		"sync_status", decision.SyncStatus,
	)
	return decision, nil
}

// RetrySync 补偿尚未同步成功的决策。已同步或无需同步时为空操作；
// 本次同步仍失败时返回错误，交由消费侧的重试与死信机制兜底。
func (e *Engine) RetrySync(ctx context.Context, decisionID string) error {
	decision, err := e.decisions.FindByDecisionID(ctx, decisionID)
	if err != nil {
		return err
	}
	if !decision.NeedsSync() {
		return nil
	}

	e.syncToCarrier(ctx, decision)
	if err := e.decisions.Save(ctx, decision); err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	if decision.SyncStatus == domain.SyncFailed {
		return fmt.Errorf("carrier sync failed for decision %s: %s", decisionID, decision.SyncError)
	}
	return nil
}

// Review 人工复核：资深核保人对 REFERRED / IN_REVIEW 决策落定终态。
// 通过时审批人写回保单承保信息，解除高风险保单的承保闸门；
// 落定为自动通过语义后同样参与承保方同步。
func (e *Engine) Review(ctx context.Context, decisionID, reviewer string, approved bool, notes string) (*domain.UnderwritingDecision, error) {
	decision, err := e.decisions.FindByDecisionID(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	if err := decision.Review(reviewer, approved, notes); err != nil {
		return nil, err
	}

	if approved {
		policy, err := e.policies.FindByPolicyID(ctx, decision.PolicyID)
		if err != nil {
			return nil, err
		}
		policy.Approve(reviewer)
		if err := e.policies.Save(ctx, policy); err != nil {
			return nil, fmt.Errorf("failed to record approval on policy: %w", err)
		}
		if decision.NeedsSync() {
			e.syncToCarrier(ctx, decision)
		}
	}

	if err := e.decisions.Save(ctx, decision); err != nil {
		return nil, fmt.Errorf("failed to save decision: %w", err)
	}
	if e.metrics != nil {
		e.metrics.DecisionsTotal.WithLabelValues(string(decision.Status)).Inc()
	}

	if err := e.publisher.Publish(ctx, decisionMadeEvent(decision)); err != nil {
		return nil, fmt.Errorf("failed to publish decision event: %w", err)
	}

	e.logger.InfoContext(ctx, "decision reviewed",
		"decision_id", decisionID,
		"reviewer", reviewer,
		"approved", approved,
	)
	return decision, nil
}

// syncToCarrier 执行一次承保方推送并把结果记录在决策上。
// 健康探测失败时不发起推送，直接记失败，等待事件补偿。
func (e *Engine) syncToCarrier(ctx context.Context, decision *domain.UnderwritingDecision) {
	if !e.gateway.Healthy(ctx) {
		decision.MarkSyncFailed("carrier health check failed")
		e.logger.WarnContext(ctx, "carrier unhealthy, sync skipped", "decision_id", decision.DecisionID)
		return
	}
	start := time.Now()
	if _, err := e.gateway.SyncDecision(ctx, decision); err != nil {
		decision.MarkSyncFailed(err.Error())
		e.logger.ErrorContext(ctx, "carrier sync failed",
			"decision_id", decision.DecisionID,
			"elapsed", time.Since(start),
			"error", err,
		)
		return
	}
	decision.MarkSynced()
}

func decisionMadeEvent(d *domain.UnderwritingDecision) *domain.UnderwritingDecisionMadeEvent {
	return &domain.UnderwritingDecisionMadeEvent{
		DecisionID:      d.DecisionID,
		PolicyID:        d.PolicyID,
		AssessmentID:    d.AssessmentID,
		Score:           d.Score,
		Status:          d.Status,
		AutomationLevel: d.AutomationLevel,
		SyncStatus:      d.SyncStatus,
		Timestamp:       d.DecidedAt,
	}
}
