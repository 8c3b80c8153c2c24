package event

import (
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPayload struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

func (p *stubPayload) EventType() Type     { return TypePolicyCreated }
func (p *stubPayload) AggregateID() string { return p.ID }

func TestNewEnvelope(t *testing.T) {
	env, err := New(&stubPayload{ID: "POL-1", Value: 42}, "corr-1")
	require.NoError(t, err)

	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, TypePolicyCreated, env.EventType)
	assert.Equal(t, "POL-1", env.AggregateID)
	assert.Equal(t, "corr-1", env.CorrelationID)
	assert.WithinDuration(t, time.Now().UTC(), env.OccurredAt, time.Minute)
	assert.JSONEq(t, `{"id":"POL-1","value":42}`, string(env.Payload))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	env, err := New(&stubPayload{ID: "POL-2"}, "corr-2")
	require.NoError(t, err)

	decoded, err := Decode(Encode(env))
	require.NoError(t, err)

	assert.Equal(t, env.EventID, decoded.EventID)
	assert.Equal(t, env.EventType, decoded.EventType)
	assert.Equal(t, env.AggregateID, decoded.AggregateID)
	assert.Equal(t, env.CorrelationID, decoded.CorrelationID)
}

func TestDecodeRejectsCorruptEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"missing event_id", `{"event_type":"POLICY_CREATED","aggregate_id":"POL-1"}`},
		{"unknown type", `{"event_id":"e1","event_type":"SOMETHING_ELSE","aggregate_id":"POL-1"}`},
		{"missing aggregate_id", `{"event_id":"e1","event_type":"POLICY_CREATED"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)

			var decodeErr *DecodeError
			assert.True(t, errors.As(err, &decodeErr), "expected DecodeError, got %T", err)
		})
	}
}

func TestIDFromMessage(t *testing.T) {
	env, err := New(&stubPayload{ID: "POL-3"}, "")
	require.NoError(t, err)

	id, err := IDFromMessage(kafka.Message{Value: Encode(env)})
	require.NoError(t, err)
	assert.Equal(t, env.EventID, id)

	_, err = IDFromMessage(kafka.Message{Value: []byte("garbage")})
	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestTopicRouting(t *testing.T) {
	assert.Equal(t, TopicPolicyEvents, TopicFor(TypePolicyCreated))
	assert.Equal(t, TopicPolicyEvents, TopicFor(TypePolicyStatusChanged))
	assert.Equal(t, TopicClaimsEvents, TopicFor(TypeClaimCreated))
	assert.Equal(t, TopicClaimsEvents, TopicFor(TypeClaimStatusChanged))
	assert.Equal(t, TopicUnderwritingEvents, TopicFor(TypeRiskAssessed))
	assert.Equal(t, TopicUnderwritingEvents, TopicFor(TypeUnderwritingDecisionMade))

	assert.Equal(t, "policy-events-dlq", DLQTopic(TopicPolicyEvents))
}

func TestTypeValid(t *testing.T) {
	for typ := range validTypes {
		assert.True(t, typ.Valid())
	}
	assert.False(t, Type("ORDER_FILLED").Valid())
	assert.False(t, Type("").Valid())
}
