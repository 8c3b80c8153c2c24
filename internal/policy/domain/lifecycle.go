package domain

import "fmt"

// InvalidTransitionError 非法状态迁移，指明尝试的状态对。
// 该错误对请求的操作总是致命的，不可重试。
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s status transition: %s -> %s (%s)", e.Entity, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid %s status transition: %s -> %s", e.Entity, e.From, e.To)
}

// HighRiskApprovalThreshold 风险评分达到该值的保单被转人工（REFERRED），
// 在核保人审批通过前不允许承保。与核保引擎的高风险阈值保持一致。
const HighRiskApprovalThreshold = 85.0

// policyTransitions 保单状态迁移表。CANCELLED 与 EXPIRED 为终态。
var policyTransitions = map[Status][]Status{
	StatusDraft:     {StatusQuoted},
	StatusQuoted:    {StatusBound, StatusCancelled},
	StatusBound:     {StatusActive, StatusCancelled},
	StatusActive:    {StatusCancelled, StatusExpired},
	StatusCancelled: {},
	StatusExpired:   {},
}

// CanTransition 纯校验函数：迁移表之外的任何状态对一律拒绝。
// 表内迁移还需满足守卫条件：
//   - BOUND 要求已有风险评分，高风险（评分达阈值）另需审批人
//   - ACTIVE 要求已有承保方外部引用且至少一份保单文档
//   - CANCELLED 要求承保信息上有审批人
func CanTransition(current, requested Status, p *Policy) error {
	allowed, ok := policyTransitions[current]
	if !ok {
		return &InvalidTransitionError{Entity: "policy", From: string(current), To: string(requested), Reason: "unknown current status"}
	}

	found := false
	for _, s := range allowed {
		if s == requested {
			found = true
			break
		}
	}
	if !found {
		return &InvalidTransitionError{Entity: "policy", From: string(current), To: string(requested)}
	}

	switch requested {
	case StatusBound:
		if p == nil || p.Underwriting.RiskScore == nil {
			return &InvalidTransitionError{
				Entity: "policy", From: string(current), To: string(requested),
				Reason: "risk score required before binding",
			}
		}
		if *p.Underwriting.RiskScore >= HighRiskApprovalThreshold && p.Underwriting.ApprovedBy == "" {
			return &InvalidTransitionError{
				Entity: "policy", From: string(current), To: string(requested),
				Reason: "high risk policy requires underwriter approval before binding",
			}
		}
	case StatusActive:
		if p == nil || p.CarrierRef == nil {
			return &InvalidTransitionError{
				Entity: "policy", From: string(current), To: string(requested),
				Reason: "carrier reference required before activation",
			}
		}
		if len(p.Documents) == 0 {
			return &InvalidTransitionError{
				Entity: "policy", From: string(current), To: string(requested),
				Reason: "at least one policy document required before activation",
			}
		}
	case StatusCancelled:
		if p == nil || p.Underwriting.ApprovedBy == "" {
			return &InvalidTransitionError{
				Entity: "policy", From: string(current), To: string(requested),
				Reason: "underwriting approver required for cancellation",
			}
		}
	}

	return nil
}
