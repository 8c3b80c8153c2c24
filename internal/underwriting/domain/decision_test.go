package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assessmentWithScore(score float64) *RiskAssessment {
	return &RiskAssessment{
		AssessmentID: "ASM-1",
		PolicyID:     "POL-1",
		Score:        score,
		Version:      1,
		AssessedAt:   time.Now(),
	}
}

func TestDecideThresholds(t *testing.T) {
	tests := []struct {
		score      float64
		status     DecisionStatus
		automation AutomationLevel
		condition  string
	}{
		{0, DecisionApproved, AutomationFull, ""},
		{29.9, DecisionApproved, AutomationFull, ""},
		{30, DecisionApproved, AutomationFull, ""},
		{30.1, DecisionInReview, AutomationPartial, "standard review required"},
		{31, DecisionInReview, AutomationPartial, "standard review required"},
		{84.9, DecisionInReview, AutomationPartial, "standard review required"},
		{85, DecisionReferred, AutomationManual, "requires senior underwriter review"},
		{100, DecisionReferred, AutomationManual, "requires senior underwriter review"},
	}

	for _, tt := range tests {
		d := Decide("DEC-1", assessmentWithScore(tt.score))
		assert.Equal(t, tt.status, d.Status, "score %.1f", tt.score)
		assert.Equal(t, tt.automation, d.AutomationLevel, "score %.1f", tt.score)
		assert.Equal(t, tt.condition, d.Condition, "score %.1f", tt.score)
		assert.Equal(t, "engine", d.DecidedBy)
		assert.Equal(t, SyncPending, d.SyncStatus)
	}
}

func TestSyncTransitions(t *testing.T) {
	d := Decide("DEC-2", assessmentWithScore(10))
	assert.True(t, d.NeedsSync())

	d.MarkSyncFailed("connection refused")
	assert.Equal(t, SyncFailed, d.SyncStatus)
	assert.Equal(t, "connection refused", d.SyncError)
	assert.True(t, d.NeedsSync())
	// 同步失败不改变决策状态
	assert.Equal(t, DecisionApproved, d.Status)

	d.MarkSynced()
	assert.Equal(t, SyncSynced, d.SyncStatus)
	assert.Empty(t, d.SyncError)
	require.NotNil(t, d.SyncedAt)
	assert.False(t, d.NeedsSync())
}

func TestOnlyApprovedDecisionsNeedSync(t *testing.T) {
	assert.False(t, Decide("DEC-3", assessmentWithScore(50)).NeedsSync())
	assert.False(t, Decide("DEC-4", assessmentWithScore(90)).NeedsSync())
}

func TestReviewApproves(t *testing.T) {
	d := Decide("DEC-5", assessmentWithScore(90))

	require.NoError(t, d.Review("uw-senior", true, "collateral verified"))

	assert.Equal(t, DecisionApproved, d.Status)
	assert.Equal(t, "uw-senior", d.DecidedBy)
	require.Len(t, d.Reviews, 1)
	assert.True(t, d.Reviews[0].Approved)
	assert.True(t, d.NeedsSync())
}

func TestReviewDeclines(t *testing.T) {
	d := Decide("DEC-6", assessmentWithScore(50))

	require.NoError(t, d.Review("uw-bob", false, "insufficient documentation"))

	assert.Equal(t, DecisionDeclined, d.Status)
	assert.False(t, d.NeedsSync())
}

func TestReviewRejectsFinalDecisions(t *testing.T) {
	approved := Decide("DEC-7", assessmentWithScore(10))
	err := approved.Review("uw-bob", false, "")
	assert.ErrorIs(t, err, ErrDecisionFinal)

	declined := Decide("DEC-8", assessmentWithScore(50))
	require.NoError(t, declined.Review("uw-bob", false, "no"))
	assert.ErrorIs(t, declined.Review("uw-carol", true, "yes"), ErrDecisionFinal)
}

func TestReviewRequiresReviewer(t *testing.T) {
	d := Decide("DEC-9", assessmentWithScore(50))
	assert.Error(t, d.Review("", true, ""))
	assert.Empty(t, d.Reviews)
}
