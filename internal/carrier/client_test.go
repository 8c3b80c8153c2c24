package carrier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	policydomain "github.com/wyfcoding/policyadmin/internal/policy/domain"
	uwdomain "github.com/wyfcoding/policyadmin/internal/underwriting/domain"
	"github.com/wyfcoding/policyadmin/pkg/config"
	"github.com/wyfcoding/policyadmin/pkg/logger"
	"github.com/wyfcoding/policyadmin/pkg/resilience"
)

func newTestClient(baseURL string, maxAttempts int) *Client {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Name:                 "carrier-test",
		Window:               time.Minute,
		FailureRateThreshold: 0.99,
		MinRequests:          1000,
		ResetTimeout:         time.Minute,
	}, nil)
	retrier := resilience.NewRetrier(resilience.RetryPolicy{
		MaxAttempts:   maxAttempts,
		InitialDelay:  time.Millisecond,
		BackoffFactor: 2,
		MaxDelay:      5 * time.Millisecond,
	})
	return NewClient(config.CarrierConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		RequestTimeout: 2000,
	}, breaker, retrier, nil)
}

func testPolicy() *policydomain.Policy {
	p := policydomain.NewPolicy("POL-1", "H-1", "CARGO-STD", decimal.RequireFromString("1234.50"), []policydomain.Coverage{
		{PolicyRef: "POL-1", Code: "WATER", Limit: decimal.NewFromInt(100000), Deductible: decimal.NewFromInt(500)},
	})
	return p
}

func TestCreatePolicySendsWireFormat(t *testing.T) {
	var got PolicyRequest
	var apiKey, correlationID string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/policies", r.URL.Path)
		apiKey = r.Header.Get("X-API-Key")
		correlationID = r.Header.Get("X-Correlation-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(PolicyResponse{CarrierRef: "CR-77", PolicyNumber: got.PolicyNumber, Version: 1})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 1)
	ctx := logger.WithCorrelationID(context.Background(), "corr-42")

	resp, err := client.CreatePolicy(ctx, testPolicy())
	require.NoError(t, err)

	assert.Equal(t, "CR-77", resp.CarrierRef)
	assert.Equal(t, "test-key", apiKey)
	assert.Equal(t, "corr-42", correlationID)
	// 金额走十进制字符串，不经过 JSON 浮点
	assert.Equal(t, "1234.50", got.Premium)
	require.Len(t, got.Coverages, 1)
	assert.Equal(t, "100000.00", got.Coverages[0].LimitAmount)
}

func TestValidationErrorIsPermanent(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(ValidationError{Code: "INVALID_PRODUCT", Message: "unknown product code"})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)

	_, err := client.CreatePolicy(context.Background(), testPolicy())
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, http.StatusUnprocessableEntity, ve.StatusCode)
	assert.Equal(t, "INVALID_PRODUCT", ve.Code)
	assert.False(t, resilience.IsTransient(err))
	// 业务拒绝不重试
	assert.Equal(t, 1, calls)
}

func TestServerErrorsAreRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(PolicyResponse{CarrierRef: "CR-1", Version: 1})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 5)

	resp, err := client.CreatePolicy(context.Background(), testPolicy())
	require.NoError(t, err)
	assert.Equal(t, "CR-1", resp.CarrierRef)
	assert.Equal(t, 3, calls)
}

func TestServerErrorExhaustsRetryBudget(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 3)

	_, err := client.CreatePolicy(context.Background(), testPolicy())
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Equal(t, 3, calls)
}

func TestUpdatePolicyRequiresCarrierRef(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1", 1)

	_, err := client.UpdatePolicy(context.Background(), testPolicy())
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}

func TestSyncDecisionWireFormat(t *testing.T) {
	var got DecisionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/policies/decisions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(AckResponse{CarrierRef: "CR-1", Version: 2})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 1)
	decision := uwdomain.Decide("DEC-1", &uwdomain.RiskAssessment{
		AssessmentID: "ASM-1",
		PolicyID:     "POL-1",
		Score:        12,
		AssessedAt:   time.Now(),
	})

	ack, err := client.SyncDecision(context.Background(), decision)
	require.NoError(t, err)

	assert.Equal(t, 2, ack.Version)
	assert.Equal(t, "POL-1", got.PolicyNumber)
	assert.Equal(t, "APPROVED", got.Decision)
	assert.Equal(t, "engine", got.DecidedBy)
}

func TestHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/system/status" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"UP"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 1)
	assert.True(t, client.Healthy(context.Background()))

	srv.Close()
	assert.False(t, client.Healthy(context.Background()))
}
