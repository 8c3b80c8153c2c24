package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimTransitionTable(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusNew, StatusUnderReview, true},
		{StatusNew, StatusDenied, true},
		{StatusNew, StatusApproved, false},
		{StatusNew, StatusPaid, false},
		{StatusUnderReview, StatusPendingInfo, true},
		{StatusUnderReview, StatusApproved, true},
		{StatusUnderReview, StatusDenied, true},
		{StatusUnderReview, StatusPaid, false},
		{StatusPendingInfo, StatusUnderReview, true},
		{StatusPendingInfo, StatusApproved, false},
		{StatusApproved, StatusInPayment, true},
		{StatusApproved, StatusPaid, false},
		{StatusInPayment, StatusPaid, true},
		{StatusPaid, StatusClosed, true},
		{StatusPaid, StatusReopened, true},
		{StatusDenied, StatusClosed, true},
		{StatusDenied, StatusReopened, true},
		{StatusClosed, StatusReopened, true},
		{StatusClosed, StatusUnderReview, false},
		{StatusReopened, StatusUnderReview, true},
		{StatusReopened, StatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := CanTransition(tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				var invalid *InvalidTransitionError
				require.Error(t, err)
				assert.True(t, errors.As(err, &invalid))
			}
		})
	}
}

func TestReopenedMustPassReviewAgain(t *testing.T) {
	// 重开的案件必须重新走完整审核流程才能再次进入赔付
	assert.Error(t, CanTransition(StatusReopened, StatusInPayment))
	assert.Error(t, CanTransition(StatusReopened, StatusPaid))
	assert.NoError(t, CanTransition(StatusReopened, StatusUnderReview))
}
