// Package http 核保服务 HTTP 接口层
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/policyadmin/internal/underwriting/application"
	"github.com/wyfcoding/policyadmin/internal/underwriting/domain"
	"gorm.io/gorm"
)

// Handler 核保 HTTP 处理器
type Handler struct {
	engine       *application.Engine
	queryService *application.QueryService
}

// NewHandler 创建 HTTP 处理器
func NewHandler(engine *application.Engine, queryService *application.QueryService) *Handler {
	return &Handler{
		engine:       engine,
		queryService: queryService,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	uw := r.Group("/underwriting")
	{
		uw.POST("/assessments", h.Assess)
		uw.GET("/assessments/:id", h.GetAssessment)
		uw.POST("/decisions/:id/review", h.Review)
		uw.GET("/decisions/:id", h.GetDecision)
		uw.GET("/policies/:policyId/decision", h.LatestDecision)
	}
}

// FactorRequest 单因子输入，得分 0~100，置信度可缺省
type FactorRequest struct {
	Score      float64 `json:"score" binding:"min=0,max=100"`
	Confidence float64 `json:"confidence" binding:"min=0,max=1"`
}

// AssessRequest 风险评估请求体
type AssessRequest struct {
	PolicyID         string        `json:"policy_id" binding:"required"`
	ClaimsHistory    FactorRequest `json:"claims_history"`
	Location         FactorRequest `json:"location"`
	CoverageAmount   FactorRequest `json:"coverage_amount"`
	BusinessMaturity FactorRequest `json:"business_maturity"`
}

// Assess 对保单执行风险评估
func (h *Handler) Assess(c *gin.Context) {
	var req AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assessment, err := h.engine.Assess(c.Request.Context(), req.PolicyID, domain.FactorScores{
		ClaimsHistory:    domain.FactorInput(req.ClaimsHistory),
		Location:         domain.FactorInput(req.Location),
		CoverageAmount:   domain.FactorInput(req.CoverageAmount),
		BusinessMaturity: domain.FactorInput(req.BusinessMaturity),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"assessment_id": assessment.AssessmentID,
		"policy_id":     assessment.PolicyID,
		"score":         assessment.Score,
		"version":       assessment.Version,
	})
}

// GetAssessment 查询评估
func (h *Handler) GetAssessment(c *gin.Context) {
	assessment, err := h.queryService.GetAssessment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// ReviewRequest 人工复核请求体
type ReviewRequest struct {
	Reviewer string `json:"reviewer" binding:"required"`
	Approved *bool  `json:"approved" binding:"required"`
	Notes    string `json:"notes"`
}

// Review 人工复核决策
func (h *Handler) Review(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	decision, err := h.engine.Review(c.Request.Context(), c.Param("id"), req.Reviewer, *req.Approved, req.Notes)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"decision_id": decision.DecisionID,
		"status":      decision.Status,
		"sync_status": decision.SyncStatus,
	})
}

// GetDecision 查询决策
func (h *Handler) GetDecision(c *gin.Context) {
	decision, err := h.queryService.GetDecision(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// LatestDecision 查询保单最新决策
func (h *Handler) LatestDecision(c *gin.Context) {
	decision, err := h.queryService.LatestDecision(c.Request.Context(), c.Param("policyId"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// writeDomainError 将错误映射为 HTTP 状态。复核类非法操作按冲突处理。
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrDecisionFinal):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
