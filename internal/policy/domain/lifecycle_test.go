package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boundReady 返回满足所有承保守卫的保单
func boundReady() *Policy {
	p := NewPolicy("POL-1", "H-1", "CARGO-STD", decimal.NewFromInt(1200), nil)
	p.SetRiskScore(25, "")
	p.Approve("uw-alice")
	p.AttachCarrierRef("CR-9", 1)
	p.AddDocument("policy.pdf", "s3://docs/policy.pdf")
	return p
}

func TestPolicyTransitionTable(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusDraft, StatusQuoted, true},
		{StatusDraft, StatusBound, false},
		{StatusDraft, StatusActive, false},
		{StatusQuoted, StatusBound, true},
		{StatusQuoted, StatusCancelled, true},
		{StatusQuoted, StatusExpired, false},
		{StatusBound, StatusActive, true},
		{StatusBound, StatusCancelled, true},
		{StatusBound, StatusQuoted, false},
		{StatusActive, StatusCancelled, true},
		{StatusActive, StatusExpired, true},
		{StatusActive, StatusDraft, false},
		{StatusCancelled, StatusQuoted, false},
		{StatusCancelled, StatusActive, false},
		{StatusExpired, StatusActive, false},
		{StatusExpired, StatusQuoted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := CanTransition(tt.from, tt.to, boundReady())
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

func TestBindRequiresRiskScore(t *testing.T) {
	p := NewPolicy("POL-2", "H-1", "CARGO-STD", decimal.NewFromInt(900), nil)

	err := CanTransition(StatusQuoted, StatusBound, p)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "risk score")

	p.SetRiskScore(40, "")
	assert.NoError(t, CanTransition(StatusQuoted, StatusBound, p))
}

func TestBindHighRiskRequiresApproval(t *testing.T) {
	p := NewPolicy("POL-3", "H-1", "CARGO-STD", decimal.NewFromInt(900), nil)
	p.SetRiskScore(85, "")

	err := CanTransition(StatusQuoted, StatusBound, p)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "approval")

	// 审批人落定后放行
	p.Approve("uw-senior")
	assert.NoError(t, CanTransition(StatusQuoted, StatusBound, p))
}

func TestActivationGuards(t *testing.T) {
	p := NewPolicy("POL-4", "H-1", "CARGO-STD", decimal.NewFromInt(900), nil)
	p.SetRiskScore(20, "")

	err := CanTransition(StatusBound, StatusActive, p)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "carrier reference")

	p.AttachCarrierRef("CR-1", 1)
	err = CanTransition(StatusBound, StatusActive, p)
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "document")

	p.AddDocument("policy.pdf", "s3://docs/policy.pdf")
	assert.NoError(t, CanTransition(StatusBound, StatusActive, p))
}

func TestCancellationRequiresApprover(t *testing.T) {
	p := NewPolicy("POL-5", "H-1", "CARGO-STD", decimal.NewFromInt(900), nil)
	p.SetRiskScore(20, "")

	err := CanTransition(StatusBound, StatusCancelled, p)
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	p.Approve("uw-alice")
	assert.NoError(t, CanTransition(StatusBound, StatusCancelled, p))
}

func TestTransitionToEmitsStatusChangedEvent(t *testing.T) {
	p := NewPolicy("POL-6", "H-1", "CARGO-STD", decimal.NewFromInt(900), nil)
	p.ClearDomainEvents()

	require.NoError(t, p.TransitionTo(StatusQuoted, "agent-1"))
	assert.Equal(t, StatusQuoted, p.Status)

	events := p.GetDomainEvents()
	require.Len(t, events, 1)
	changed, ok := events[0].(*PolicyStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, StatusDraft, changed.FromStatus)
	assert.Equal(t, StatusQuoted, changed.ToStatus)
	assert.Equal(t, "agent-1", changed.Actor)
}

func TestTransitionToRejectsAndKeepsStatus(t *testing.T) {
	p := NewPolicy("POL-7", "H-1", "CARGO-STD", decimal.NewFromInt(900), nil)
	p.ClearDomainEvents()

	err := p.TransitionTo(StatusActive, "agent-1")
	require.Error(t, err)
	assert.Equal(t, StatusDraft, p.Status)
	assert.Empty(t, p.GetDomainEvents())
}
