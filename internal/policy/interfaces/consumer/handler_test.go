package consumer

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/policyadmin/internal/carrier"
	"github.com/wyfcoding/policyadmin/internal/event"
	"github.com/wyfcoding/policyadmin/internal/policy/domain"
	"gorm.io/gorm"
)

type fakePolicyRepo struct {
	policies map[string]*domain.Policy
}

func (r *fakePolicyRepo) Save(_ context.Context, p *domain.Policy) error {
	r.policies[p.PolicyID] = p
	return nil
}

func (r *fakePolicyRepo) FindByPolicyID(_ context.Context, policyID string) (*domain.Policy, error) {
	if p, ok := r.policies[policyID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePolicyRepo) List(_ context.Context, _ domain.Status, _, _ int) ([]*domain.Policy, error) {
	return nil, nil
}

type fakeGateway struct {
	creates int
	updates int
	err     error
}

func (g *fakeGateway) CreatePolicy(_ context.Context, _ *domain.Policy) (*carrier.PolicyResponse, error) {
	g.creates++
	if g.err != nil {
		return nil, g.err
	}
	return &carrier.PolicyResponse{CarrierRef: "CR-1", Version: 1}, nil
}

func (g *fakeGateway) UpdatePolicy(_ context.Context, _ *domain.Policy) (*carrier.AckResponse, error) {
	g.updates++
	if g.err != nil {
		return nil, g.err
	}
	return &carrier.AckResponse{CarrierRef: "CR-1", Version: 2}, nil
}

func envelopeMessage(t *testing.T, payload event.Payloader) kafka.Message {
	t.Helper()
	env, err := event.New(payload, "corr-1")
	require.NoError(t, err)
	return kafka.Message{Topic: event.TopicPolicyEvents, Key: []byte(env.AggregateID), Value: event.Encode(env)}
}

func newTestHandler(t *testing.T) (*Handler, *fakePolicyRepo, *fakeGateway) {
	t.Helper()
	repo := &fakePolicyRepo{policies: map[string]*domain.Policy{}}
	gateway := &fakeGateway{}
	return NewHandler(repo, gateway, slog.Default()), repo, gateway
}

func seedPolicy(repo *fakePolicyRepo) *domain.Policy {
	p := domain.NewPolicy("POL-1", "H-1", "CARGO-STD", decimal.NewFromInt(900), nil)
	p.ClearDomainEvents()
	repo.policies[p.PolicyID] = p
	return p
}

func TestPolicyCreatedSyncsAndAttachesRef(t *testing.T) {
	handler, repo, gateway := newTestHandler(t)
	p := seedPolicy(repo)

	msg := envelopeMessage(t, &domain.PolicyCreatedEvent{
		PolicyID: "POL-1", HolderID: "H-1", ProductCode: "CARGO-STD",
		Premium: decimal.NewFromInt(900), Timestamp: time.Now(),
	})
	require.NoError(t, handler.Handle(context.Background(), msg))

	assert.Equal(t, 1, gateway.creates)
	require.NotNil(t, p.CarrierRef)
	assert.Equal(t, "CR-1", *p.CarrierRef)
	assert.Equal(t, 1, p.CarrierVersion)
}

func TestPolicyCreatedRedeliveryIsIdempotent(t *testing.T) {
	handler, repo, gateway := newTestHandler(t)
	p := seedPolicy(repo)
	p.AttachCarrierRef("CR-9", 3)

	msg := envelopeMessage(t, &domain.PolicyCreatedEvent{PolicyID: "POL-1", Timestamp: time.Now()})
	require.NoError(t, handler.Handle(context.Background(), msg))

	assert.Zero(t, gateway.creates)
	assert.Equal(t, "CR-9", *p.CarrierRef)
}

func TestPolicyStatusChangedSyncsUpdate(t *testing.T) {
	handler, repo, gateway := newTestHandler(t)
	p := seedPolicy(repo)
	p.AttachCarrierRef("CR-1", 1)

	msg := envelopeMessage(t, &domain.PolicyStatusChangedEvent{
		PolicyID: "POL-1", FromStatus: domain.StatusDraft, ToStatus: domain.StatusQuoted,
		Actor: "agent-1", Timestamp: time.Now(),
	})
	require.NoError(t, handler.Handle(context.Background(), msg))

	assert.Equal(t, 1, gateway.updates)
	assert.Equal(t, 2, p.CarrierVersion)
}

func TestUpdateWithoutRefFallsBackToCreate(t *testing.T) {
	handler, repo, gateway := newTestHandler(t)
	seedPolicy(repo)

	msg := envelopeMessage(t, &domain.PolicyUpdatedEvent{PolicyID: "POL-1", Premium: decimal.NewFromInt(950), Timestamp: time.Now()})
	require.NoError(t, handler.Handle(context.Background(), msg))

	assert.Equal(t, 1, gateway.creates)
	assert.Zero(t, gateway.updates)
}

func TestCarrierFailurePropagates(t *testing.T) {
	handler, repo, gateway := newTestHandler(t)
	seedPolicy(repo)
	gateway.err = errors.New("connection refused")

	msg := envelopeMessage(t, &domain.PolicyCreatedEvent{PolicyID: "POL-1", Timestamp: time.Now()})
	assert.Error(t, handler.Handle(context.Background(), msg))
}

func TestCorruptMessageReturnsDecodeError(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	err := handler.Handle(context.Background(), kafka.Message{Value: []byte("garbage")})
	var decodeErr *event.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestUnexpectedEventTypeRejected(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	env := event.Envelope{
		EventID:     "e1",
		EventType:   event.TypeClaimCreated,
		AggregateID: "CLM-1",
		Payload:     []byte(`{}`),
		OccurredAt:  time.Now(),
	}
	err := handler.Handle(context.Background(), kafka.Message{Value: event.Encode(env)})
	assert.Error(t, err)
}
