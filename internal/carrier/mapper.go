package carrier

import (
	"time"

	policydomain "github.com/wyfcoding/policyadmin/internal/policy/domain"
	uwdomain "github.com/wyfcoding/policyadmin/internal/underwriting/domain"
)

// toPolicyRequest 由保单聚合构造承保方请求体
func toPolicyRequest(p *policydomain.Policy) *PolicyRequest {
	req := &PolicyRequest{
		PolicyNumber: p.PolicyID,
		HolderID:     p.HolderID,
		ProductCode:  p.ProductCode,
		Premium:      p.Premium.StringFixed(2),
		Status:       string(p.Status),
		Version:      p.CarrierVersion,
	}
	for _, c := range p.Coverages {
		req.Coverages = append(req.Coverages, CoverageRequest{
			Code:        c.Code,
			LimitAmount: c.Limit.StringFixed(2),
			Deductible:  c.Deductible.StringFixed(2),
		})
	}
	return req
}

// toDecisionRequest 由核保决策构造推送请求体
func toDecisionRequest(d *uwdomain.UnderwritingDecision) *DecisionRequest {
	return &DecisionRequest{
		PolicyNumber: d.PolicyID,
		DecisionID:   d.DecisionID,
		Decision:     string(d.Status),
		Score:        d.Score,
		DecidedBy:    d.DecidedBy,
		DecidedAt:    d.DecidedAt.UTC().Format(time.RFC3339),
	}
}
