// Package domain 核保领域层
// 生成摘要：
// 1) 定义风险评估聚合与风险因子加权模型
// 2) 定义核保决策聚合与自动化决策规则
package domain

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// FactorType 风险因子类型
type FactorType string

const (
	FactorClaimsHistory    FactorType = "CLAIMS_HISTORY"    // 历史理赔
	FactorLocation         FactorType = "LOCATION"          // 地域风险
	FactorCoverageAmount   FactorType = "COVERAGE_AMOUNT"   // 保额规模
	FactorBusinessMaturity FactorType = "BUSINESS_MATURITY" // 经营年限
)

// factorWeights 固定权重表，各因子权重之和恒为 1.0。
// 权重调整属于产品决策，不随单次评估输入变化。
var factorWeights = map[FactorType]float64{
	FactorClaimsHistory:    0.35,
	FactorLocation:         0.20,
	FactorCoverageAmount:   0.25,
	FactorBusinessMaturity: 0.20,
}

// FactorWeight 返回指定因子的固定权重，未知因子返回 0。
func FactorWeight(t FactorType) float64 {
	return factorWeights[t]
}

// FactorInput 单因子评估输入。得分取值 0~100；置信度取值 (0,1]，
// 反映数据来源质量，缺省按 1.0（完全置信）记录，不参与得分计算。
type FactorInput struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// FactorScores 单次评估的原始因子输入。
type FactorScores struct {
	ClaimsHistory    FactorInput `json:"claimsHistory"`
	Location         FactorInput `json:"location"`
	CoverageAmount   FactorInput `json:"coverageAmount"`
	BusinessMaturity FactorInput `json:"businessMaturity"`
}

// RiskFactor 评估明细行，持久化单因子得分、置信度与计算时采用的权重。
type RiskFactor struct {
	gorm.Model
	AssessmentRef string     `gorm:"column:assessment_ref;type:varchar(64);index;not null"`
	Type          FactorType `gorm:"column:factor_type;type:varchar(32);not null"`
	Score         float64    `gorm:"column:score;not null"`
	Weight        float64    `gorm:"column:weight;not null"`
	Confidence    float64    `gorm:"column:confidence;not null;default:1"`
}

// RiskAssessment 风险评估聚合。同一保单可多次评估，版本号递增，
// 决策始终基于最新版本。
type RiskAssessment struct {
	gorm.Model
	AssessmentID string       `gorm:"column:assessment_id;type:varchar(64);uniqueIndex;not null"`
	PolicyID     string       `gorm:"column:policy_id;type:varchar(32);index;not null"`
	Score        float64      `gorm:"column:score;not null"`
	Version      int          `gorm:"column:version;not null;default:1"`
	AssessedAt   time.Time    `gorm:"column:assessed_at;not null"`
	Factors      []RiskFactor `gorm:"foreignKey:AssessmentRef;references:AssessmentID"`
}

// NewRiskAssessment 根据因子输入构造评估。任一因子得分或置信度越界即拒绝。
func NewRiskAssessment(assessmentID, policyID string, scores FactorScores, version int) (*RiskAssessment, error) {
	newFactor := func(t FactorType, in FactorInput) RiskFactor {
		if in.Confidence == 0 {
			in.Confidence = 1.0
		}
		return RiskFactor{
			AssessmentRef: assessmentID,
			Type:          t,
			Score:         in.Score,
			Weight:        factorWeights[t],
			Confidence:    in.Confidence,
		}
	}
	factors := []RiskFactor{
		newFactor(FactorClaimsHistory, scores.ClaimsHistory),
		newFactor(FactorLocation, scores.Location),
		newFactor(FactorCoverageAmount, scores.CoverageAmount),
		newFactor(FactorBusinessMaturity, scores.BusinessMaturity),
	}
	for _, f := range factors {
		if f.Score < 0 || f.Score > 100 {
			return nil, fmt.Errorf("factor %s score %.2f out of range [0,100]", f.Type, f.Score)
		}
		if f.Confidence < 0 || f.Confidence > 1 {
			return nil, fmt.Errorf("factor %s confidence %.2f out of range (0,1]", f.Type, f.Confidence)
		}
	}
	return &RiskAssessment{
		AssessmentID: assessmentID,
		PolicyID:     policyID,
		Score:        WeightedScore(factors),
		Version:      version,
		AssessedAt:   time.Now(),
		Factors:      factors,
	}, nil
}

// WeightedScore 纯函数：按持久化时记录的权重汇总加权得分。
func WeightedScore(factors []RiskFactor) float64 {
	var total float64
	for _, f := range factors {
		total += f.Score * f.Weight
	}
	return total
}
