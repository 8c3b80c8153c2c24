// Package carrier 承保方 REST 对接层
// 生成摘要：
// 1) 定义承保方线格式 DTO 与校验错误
// 2) 提供带熔断与重试的同步客户端
package carrier

import (
	"errors"
	"fmt"
)

// PolicyRequest 保单创建/更新请求体。金额统一走十进制字符串，
// 避免 JSON 浮点在对端截断。
type PolicyRequest struct {
	PolicyNumber string            `json:"policyNumber"`
	HolderID     string            `json:"holderId"`
	ProductCode  string            `json:"productCode"`
	Premium      string            `json:"premium"`
	Status       string            `json:"status"`
	Coverages    []CoverageRequest `json:"coverages,omitempty"`
	// 对端乐观锁版本，创建时为 0
	Version int `json:"version"`
}

// CoverageRequest 险种明细
type CoverageRequest struct {
	Code        string `json:"code"`
	LimitAmount string `json:"limitAmount"`
	Deductible  string `json:"deductible"`
}

// PolicyResponse 承保方返回的保单视图
type PolicyResponse struct {
	CarrierRef   string `json:"carrierRef"`
	PolicyNumber string `json:"policyNumber"`
	Status       string `json:"status"`
	Version      int    `json:"version"`
}

// DecisionRequest 核保决策推送请求体
type DecisionRequest struct {
	PolicyNumber string  `json:"policyNumber"`
	DecisionID   string  `json:"decisionId"`
	Decision     string  `json:"decision"`
	Score        float64 `json:"score"`
	DecidedBy    string  `json:"decidedBy"`
	DecidedAt    string  `json:"decidedAt"`
}

// AckResponse 承保方对推送类请求的确认
type AckResponse struct {
	CarrierRef string `json:"carrierRef"`
	Version    int    `json:"version"`
}

// healthResponse 承保方健康检查返回
type healthResponse struct {
	Status string `json:"status"`
}

// ValidationError 承保方 4xx 业务拒绝。属于永久失败：
// 重试同一请求不会改变结果，调用方应立即上抛。
type ValidationError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("carrier rejected request (%d %s): %s", e.StatusCode, e.Code, e.Message)
}

// IsValidationError 判断错误链上是否为承保方业务拒绝
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
