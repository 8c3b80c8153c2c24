package application

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/policyadmin/internal/claim/domain"
	"github.com/wyfcoding/policyadmin/internal/event"
	"gorm.io/gorm"
)

type fakeClaimRepo struct {
	claims map[string]*domain.Claim
	saves  int
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{claims: map[string]*domain.Claim{}}
}

func (r *fakeClaimRepo) Save(_ context.Context, c *domain.Claim) error {
	r.saves++
	r.claims[c.ClaimID] = c
	return nil
}

func (r *fakeClaimRepo) FindByClaimID(_ context.Context, claimID string) (*domain.Claim, error) {
	if c, ok := r.claims[claimID]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeClaimRepo) ListByPolicyID(_ context.Context, policyID string) ([]*domain.Claim, error) {
	var out []*domain.Claim
	for _, c := range r.claims {
		if c.PolicyID == policyID {
			out = append(out, c)
		}
	}
	return out, nil
}

type capturingPublisher struct {
	published []event.Payloader
}

func (p *capturingPublisher) Publish(_ context.Context, payload event.Payloader) error {
	p.published = append(p.published, payload)
	return nil
}

func newTestService() (*CommandService, *fakeClaimRepo, *capturingPublisher) {
	repo := newFakeClaimRepo()
	publisher := &capturingPublisher{}
	return NewCommandService(repo, publisher, slog.Default()), repo, publisher
}

func TestCreateClaimSavesAndPublishes(t *testing.T) {
	svc, repo, publisher := newTestService()

	claim, err := svc.CreateClaim(context.Background(), "POL-1", "storm damage", decimal.NewFromInt(8000), "agent-1")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusNew, claim.Status)
	assert.Contains(t, repo.claims, claim.ClaimID)

	require.Len(t, publisher.published, 1)
	created, ok := publisher.published[0].(*domain.ClaimCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, claim.ClaimID, created.ClaimID)
	assert.Equal(t, "POL-1", created.PolicyID)
}

func TestRequestStatusChangePublishesWithoutApplying(t *testing.T) {
	svc, repo, publisher := newTestService()
	claim, err := svc.CreateClaim(context.Background(), "POL-1", "storm damage", decimal.NewFromInt(8000), "agent-1")
	require.NoError(t, err)
	savesBefore := repo.saves

	err = svc.RequestStatusChange(context.Background(), claim.ClaimID, domain.StatusUnderReview, "adjuster-1", "")
	require.NoError(t, err)

	// 请求侧只发布，不落地
	assert.Equal(t, domain.StatusNew, claim.Status)
	assert.Equal(t, savesBefore, repo.saves)

	changed, ok := publisher.published[len(publisher.published)-1].(*domain.ClaimStatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, domain.StatusNew, changed.FromStatus)
	assert.Equal(t, domain.StatusUnderReview, changed.ToStatus)
}

func TestRequestStatusChangeUnknownClaim(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.RequestStatusChange(context.Background(), "CLM-404", domain.StatusUnderReview, "adjuster-1", "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestApplyStatusChange(t *testing.T) {
	svc, _, _ := newTestService()
	claim, err := svc.CreateClaim(context.Background(), "POL-1", "storm damage", decimal.NewFromInt(8000), "agent-1")
	require.NoError(t, err)

	require.NoError(t, svc.ApplyStatusChange(context.Background(), claim.ClaimID, domain.StatusUnderReview, "system", "auto triage"))
	assert.Equal(t, domain.StatusUnderReview, claim.Status)
}

func TestApplyStatusChangeIdempotentOnRedelivery(t *testing.T) {
	svc, repo, _ := newTestService()
	claim, err := svc.CreateClaim(context.Background(), "POL-1", "storm damage", decimal.NewFromInt(8000), "agent-1")
	require.NoError(t, err)

	require.NoError(t, svc.ApplyStatusChange(context.Background(), claim.ClaimID, domain.StatusUnderReview, "system", ""))
	savesBefore := repo.saves
	historyBefore := len(claim.History)

	// 重投：目标状态已生效，不追加历史也不再保存
	require.NoError(t, svc.ApplyStatusChange(context.Background(), claim.ClaimID, domain.StatusUnderReview, "system", ""))
	assert.Equal(t, savesBefore, repo.saves)
	assert.Len(t, claim.History, historyBefore)
}

func TestApplyStatusChangeRejectsIllegalTransition(t *testing.T) {
	svc, _, _ := newTestService()
	claim, err := svc.CreateClaim(context.Background(), "POL-1", "storm damage", decimal.NewFromInt(8000), "agent-1")
	require.NoError(t, err)

	err = svc.ApplyStatusChange(context.Background(), claim.ClaimID, domain.StatusPaid, "system", "")
	var invalid *domain.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.StatusNew, claim.Status)
}

func TestAdjustReserveAndPaymentsPersist(t *testing.T) {
	svc, repo, _ := newTestService()
	claim, err := svc.CreateClaim(context.Background(), "POL-1", "storm damage", decimal.NewFromInt(8000), "agent-1")
	require.NoError(t, err)

	require.NoError(t, svc.AdjustReserve(context.Background(), claim.ClaimID, decimal.NewFromInt(6000), "adjuster-1", "revised estimate"))
	assert.True(t, repo.claims[claim.ClaimID].ReserveAmount.Equal(decimal.NewFromInt(6000)))

	require.NoError(t, svc.ApplyStatusChange(context.Background(), claim.ClaimID, domain.StatusUnderReview, "system", ""))
	require.NoError(t, svc.ApplyStatusChange(context.Background(), claim.ClaimID, domain.StatusApproved, "adjuster-1", ""))
	require.NoError(t, svc.ApplyStatusChange(context.Background(), claim.ClaimID, domain.StatusInPayment, "finance-1", ""))

	require.NoError(t, svc.RecordPayment(context.Background(), claim.ClaimID, decimal.NewFromInt(2500)))
	assert.True(t, repo.claims[claim.ClaimID].PaidAmount.Equal(decimal.NewFromInt(2500)))
}
