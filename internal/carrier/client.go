package carrier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	policydomain "github.com/wyfcoding/policyadmin/internal/policy/domain"
	uwdomain "github.com/wyfcoding/policyadmin/internal/underwriting/domain"
	"github.com/wyfcoding/policyadmin/pkg/config"
	"github.com/wyfcoding/policyadmin/pkg/logger"
	"github.com/wyfcoding/policyadmin/pkg/metrics"
	"github.com/wyfcoding/policyadmin/pkg/resilience"
)

const headerCorrelationID = "X-Correlation-ID"

// Client 承保方同步客户端。所有调用经由重试器包裹熔断器：
// 熔断 OPEN 返回的 ErrServiceUnavailable 非瞬时错误，不消耗重试预算，
// 因此 OPEN 期间不会产生任何对端流量。
type Client struct {
	http    *resty.Client
	breaker *resilience.Breaker
	retrier *resilience.Retrier
	metrics *metrics.Metrics
}

// NewClient 创建承保方客户端。单次请求超时由 resty 承担，
// 重试与熔断由注入的协作者承担，客户端内不再叠加 resty 自带重试。
func NewClient(cfg config.CarrierConfig, br *resilience.Breaker, rt *resilience.Retrier, m *metrics.Metrics) *Client {
	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.RequestTimeout) * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-API-Key", cfg.APIKey).
		SetRetryCount(0)

	return &Client{http: hc, breaker: br, retrier: rt, metrics: m}
}

// CreatePolicy 在承保方侧创建保单，返回对端引用与版本。
func (c *Client) CreatePolicy(ctx context.Context, p *policydomain.Policy) (*PolicyResponse, error) {
	var out PolicyResponse
	err := c.do(ctx, "create_policy", func(ctx context.Context) error {
		ve := &ValidationError{}
		resp, err := c.request(ctx).
			SetBody(toPolicyRequest(p)).
			SetResult(&out).
			SetError(ve).
			Post("/policies")
		return classify(resp, err, "create_policy", ve)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePolicy 按对端引用更新保单，携带本地版本号做幂等更新。
func (c *Client) UpdatePolicy(ctx context.Context, p *policydomain.Policy) (*AckResponse, error) {
	if p.CarrierRef == nil {
		return nil, fmt.Errorf("policy %s has no carrier ref", p.PolicyID)
	}
	var out AckResponse
	err := c.do(ctx, "update_policy", func(ctx context.Context) error {
		ve := &ValidationError{}
		resp, err := c.request(ctx).
			SetBody(toPolicyRequest(p)).
			SetResult(&out).
			SetError(ve).
			Put("/policies/" + *p.CarrierRef)
		return classify(resp, err, "update_policy", ve)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPolicy 查询承保方侧的保单视图。
func (c *Client) GetPolicy(ctx context.Context, carrierRef string) (*PolicyResponse, error) {
	var out PolicyResponse
	err := c.do(ctx, "get_policy", func(ctx context.Context) error {
		ve := &ValidationError{}
		resp, err := c.request(ctx).
			SetResult(&out).
			SetError(ve).
			Get("/policies/" + carrierRef)
		return classify(resp, err, "get_policy", ve)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SyncDecision 推送核保决策。
func (c *Client) SyncDecision(ctx context.Context, d *uwdomain.UnderwritingDecision) (*AckResponse, error) {
	var out AckResponse
	err := c.do(ctx, "sync_decision", func(ctx context.Context) error {
		ve := &ValidationError{}
		resp, err := c.request(ctx).
			SetBody(toDecisionRequest(d)).
			SetResult(&out).
			SetError(ve).
			Post("/policies/decisions")
		return classify(resp, err, "sync_decision", ve)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Healthy 健康探测。单次直连调用，不走重试与熔断：
// 探测本身就是"是否该发起同步"的前置判断。
func (c *Client) Healthy(ctx context.Context) bool {
	var out healthResponse
	resp, err := c.request(ctx).SetResult(&out).Get("/system/status")
	if err != nil || !resp.IsSuccess() {
		return false
	}
	return out.Status == "" || out.Status == "UP"
}

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx)
	if cid := logger.CorrelationID(ctx); cid != "" {
		r.SetHeader(headerCorrelationID, cid)
	}
	return r
}

// do 执行一次操作：重试包裹熔断，并按尝试粒度上报指标。
func (c *Client) do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	return c.retrier.Execute(ctx, func(ctx context.Context) error {
		start := time.Now()
		err := c.breaker.Execute(func() error { return fn(ctx) })
		c.observe(operation, start, err)
		return err
	})
}

func (c *Client) observe(operation string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.CarrierRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	result := "success"
	switch {
	case err == nil:
	case resilience.IsUnavailable(err):
		result = "rejected"
	default:
		result = "error"
	}
	c.metrics.CarrierRequestsTotal.WithLabelValues(operation, result).Inc()
}

// classify 统一错误语义：网络层错误与 5xx/429/408 为瞬时错误，
// 参与重试并计入熔断失败率；其余 4xx 为承保方业务拒绝，立即上抛。
func classify(resp *resty.Response, err error, operation string, ve *ValidationError) error {
	if err != nil {
		return resilience.Transientf("carrier %s: %v", operation, err)
	}
	if resp.IsSuccess() {
		return nil
	}
	code := resp.StatusCode()
	if code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout {
		return resilience.Transientf("carrier %s returned %d", operation, code)
	}
	ve.StatusCode = code
	if ve.Code == "" {
		ve.Code = http.StatusText(code)
	}
	if ve.Message == "" {
		ve.Message = resp.String()
	}
	return ve
}
