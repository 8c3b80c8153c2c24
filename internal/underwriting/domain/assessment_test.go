package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactorWeightsSumToOne(t *testing.T) {
	var total float64
	for _, w := range factorWeights {
		total += w
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestWeightedScoreDeterministic(t *testing.T) {
	scores := FactorScores{
		ClaimsHistory:    FactorInput{Score: 80},
		Location:         FactorInput{Score: 50},
		CoverageAmount:   FactorInput{Score: 60},
		BusinessMaturity: FactorInput{Score: 40},
	}

	a, err := NewRiskAssessment("ASM-1", "POL-1", scores, 1)
	require.NoError(t, err)

	// 0.35*80 + 0.20*50 + 0.25*60 + 0.20*40 = 61
	assert.InDelta(t, 61.0, a.Score, 1e-9)
	assert.Equal(t, a.Score, WeightedScore(a.Factors))
}

func TestNewRiskAssessmentRejectsOutOfRangeInput(t *testing.T) {
	tests := []struct {
		name   string
		scores FactorScores
	}{
		{"negative claims history", FactorScores{ClaimsHistory: FactorInput{Score: -1}}},
		{"location above 100", FactorScores{Location: FactorInput{Score: 101}}},
		{"coverage above 100", FactorScores{CoverageAmount: FactorInput{Score: 250}}},
		{"maturity negative", FactorScores{BusinessMaturity: FactorInput{Score: -0.5}}},
		{"confidence above 1", FactorScores{Location: FactorInput{Score: 50, Confidence: 1.5}}},
		{"confidence negative", FactorScores{Location: FactorInput{Score: 50, Confidence: -0.1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRiskAssessment("ASM-1", "POL-1", tt.scores, 1)
			assert.Error(t, err)
		})
	}
}

func TestNewRiskAssessmentCapturesWeightsPerFactor(t *testing.T) {
	a, err := NewRiskAssessment("ASM-2", "POL-1", FactorScores{ClaimsHistory: FactorInput{Score: 100}}, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, a.Version)
	require.Len(t, a.Factors, 4)
	for _, f := range a.Factors {
		assert.Equal(t, FactorWeight(f.Type), f.Weight)
		assert.Equal(t, "ASM-2", f.AssessmentRef)
	}
}

func TestConfidenceDefaultsToFull(t *testing.T) {
	a, err := NewRiskAssessment("ASM-5", "POL-1", FactorScores{
		ClaimsHistory: FactorInput{Score: 40, Confidence: 0.6},
		Location:      FactorInput{Score: 40},
	}, 1)
	require.NoError(t, err)

	byType := map[FactorType]RiskFactor{}
	for _, f := range a.Factors {
		byType[f.Type] = f
	}
	assert.InDelta(t, 0.6, byType[FactorClaimsHistory].Confidence, 1e-9)
	assert.InDelta(t, 1.0, byType[FactorLocation].Confidence, 1e-9)
	// 置信度只作为输入质量元数据记录，不影响加权得分
	assert.InDelta(t, 0.35*40+0.20*40, a.Score, 1e-9)
}

func TestBoundaryScores(t *testing.T) {
	// 全 0 与全 100 的输入覆盖评分的值域两端
	low, err := NewRiskAssessment("ASM-3", "POL-1", FactorScores{}, 1)
	require.NoError(t, err)
	assert.Zero(t, low.Score)

	full := FactorInput{Score: 100}
	high, err := NewRiskAssessment("ASM-4", "POL-1", FactorScores{
		ClaimsHistory: full, Location: full, CoverageAmount: full, BusinessMaturity: full,
	}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, high.Score, 1e-9)
}
